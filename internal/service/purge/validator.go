package purge

import "strings"

// ValidatePaths は公開パイプラインから渡されたパス集合を正規化・検証します
// 空集合と `/` で始まらないパスは検証エラー、正規化後の重複は黙って畳みます
// 順序は入力のまま保持されます。ネットワークI/Oは行いません
func ValidatePaths(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, NewError(KindValidation, "無効化対象のパスが指定されていません")
	}

	seen := make(map[string]struct{}, len(raw))
	paths := make([]string, 0, len(raw))
	for i, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, NewError(KindValidation, "paths[%d]: 空のパスは指定できません", i)
		}
		if !strings.HasPrefix(p, "/") {
			return nil, NewError(KindValidation, "paths[%d]: パスは / で始まる必要があります: %q", i, p)
		}
		if _, ok := seen[p]; ok {
			// 重複はエラーではなく畳む
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths, nil
}
