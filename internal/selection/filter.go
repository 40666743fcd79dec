package selection

import (
	"strings"

	"EhonBot/internal/domain"
)

// DefaultDenyKeywords rejects formats the catalog routinely misfiles under
// the picture-book genre: paperback imprints, serialized fiction, comics.
var DefaultDenyKeywords = []string{
	"文庫", "新書", "児童文学", "小説", "ノベル", "ラノベ",
	"コミック", "漫画", "マンガ", "ムック",
	"青い鳥文庫", "つばさ文庫", "みらい文庫", "ポケット文庫",
}

// IsPictureBook reports whether the item survives the category deny list.
// The check runs over the concatenated title, caption, series, label and
// size fields because the genre id alone is not trustworthy. Conservative
// on purpose: dropping a good item is fine, keeping a bad one is not.
func IsPictureBook(it domain.CatalogItem, deny []string) bool {
	blob := strings.Join([]string{it.Title, it.Caption, it.SeriesName, it.Label, it.Size}, " ")
	for _, kw := range deny {
		if kw == "" {
			continue
		}
		if strings.Contains(blob, kw) {
			return false
		}
	}
	return true
}
