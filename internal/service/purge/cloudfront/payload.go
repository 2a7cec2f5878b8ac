package cloudfront

import (
	"fmt"
	"strings"

	"cdnkit/internal/service/purge"
)

// MaxPathsPerRequest はCloudFrontの1無効化リクエストあたりのパス数上限
const MaxPathsPerRequest = 3000

// xmlEscaper はパスをXML実体参照にエスケープする
// & を最初に扱う必要があるが、strings.Replacer は単一走査なので二重エスケープしない
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// BuildInvalidationBatch はCloudFrontのInvalidationBatch XMLドキュメントを組み立てます
// Quantity は必ず <Path> 要素の個数と一致し、各パスはXMLエスケープされるため
// パスの内容にかかわらず整形式のXMLになります。非ASCII文字はそのまま通します
func BuildInvalidationBatch(paths []string, callerReference string) (string, error) {
	if len(paths) == 0 {
		return "", purge.NewError(purge.KindSerialization, "空のバッチは直列化できません")
	}
	if len(paths) > MaxPathsPerRequest {
		return "", purge.NewError(purge.KindSerialization,
			"バッチのパス数 %d が上限 %d を超えています（スプリッタの不具合）", len(paths), MaxPathsPerRequest)
	}
	if callerReference == "" {
		return "", purge.NewError(purge.KindSerialization, "callerReference が空です")
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString("<InvalidationBatch>\n")
	b.WriteString("    <Paths>\n")
	fmt.Fprintf(&b, "        <Quantity>%d</Quantity>\n", len(paths))
	b.WriteString("        <Items>\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "            <Path>%s</Path>\n", xmlEscaper.Replace(p))
	}
	b.WriteString("        </Items>\n")
	b.WriteString("    </Paths>\n")
	fmt.Fprintf(&b, "    <CallerReference>%s</CallerReference>\n", xmlEscaper.Replace(callerReference))
	b.WriteString("</InvalidationBatch>\n")
	return b.String(), nil
}
