package common

import "fmt"

// ListOutput はリスト表示の共通入力
type ListOutput struct {
	Title        string
	Items        []string
	ResourceName string
}

// PrintNumberedList は番号付きリストを表示
func PrintNumberedList(output ListOutput) {
	// タイトル表示（件数付き）
	fmt.Printf("%s: (全%d件)\n", output.Title, len(output.Items))

	// アイテムがない場合
	if len(output.Items) == 0 {
		fmt.Printf("%sが見つかりませんでした\n", output.ResourceName)
		return
	}

	// 各アイテムを番号付きで表示
	for i, item := range output.Items {
		fmt.Printf("  %3d. %s\n", i+1, item)
	}
}
