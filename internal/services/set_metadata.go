package services

// setMetadata is release information the catalog API does not publish
type setMetadata struct {
	ReleaseDate string
	ImageURL    string
}

var knownSetMetadata = map[string]setMetadata{
	"OP-01": {"2022-12-02", "https://en.onepiece-cardgame.com/images/products/booster/op01/img_item.png"},
	"OP-02": {"2023-03-10", "https://en.onepiece-cardgame.com/images/products/booster/op02/img_item.png"},
	"OP-03": {"2023-06-30", "https://en.onepiece-cardgame.com/images/products/booster/op03/img_item.png"},
	"OP-04": {"2023-09-22", "https://en.onepiece-cardgame.com/images/products/booster/op04/img_item.png"},
	"OP-05": {"2023-12-08", "https://en.onepiece-cardgame.com/images/products/booster/op05/img_item.png"},
	"OP-06": {"2024-03-08", "https://en.onepiece-cardgame.com/images/products/booster/op06/img_item.png"},
	"OP-07": {"2024-06-28", "https://en.onepiece-cardgame.com/images/products/booster/op07/img_item.png"},
	"OP-08": {"2024-09-27", "https://en.onepiece-cardgame.com/images/products/booster/op08/img_item.png"},
	"OP-09": {"2024-12-06", "https://en.onepiece-cardgame.com/images/products/booster/op09/img_item.png"},
	"OP-10": {"2025-03-14", "https://en.onepiece-cardgame.com/images/products/booster/op10/img_item.png"},
	"OP-11": {"2025-06-27", ""},
	"OP-12": {"2025-09-26", ""},
	"OP-13": {"", ""},
	"EB-01": {"2024-10-25", "https://en.onepiece-cardgame.com/images/products/booster/eb01/img_item.png"},
	"EB-02": {"2025-01-24", "https://en.onepiece-cardgame.com/images/products/booster/eb02/img_item.png"},
	"PRB-01": {"2024-05-31", "https://en.onepiece-cardgame.com/images/products/booster/prb01/img_item.png"},
	"PRB-02": {"2025-10-31", ""},
	"ST-01": {"2022-12-02", "https://en.onepiece-cardgame.com/images/products/starterdeck/st01/img_item.png"},
	"ST-02": {"2022-12-02", "https://en.onepiece-cardgame.com/images/products/starterdeck/st02/img_item.png"},
	"ST-03": {"2022-12-02", "https://en.onepiece-cardgame.com/images/products/starterdeck/st03/img_item.png"},
	"ST-04": {"2022-12-02", "https://en.onepiece-cardgame.com/images/products/starterdeck/st04/img_item.png"},
	"ST-05": {"2023-03-10", "https://en.onepiece-cardgame.com/images/products/starterdeck/st05/img_item.png"},
	"ST-06": {"2023-03-10", "https://en.onepiece-cardgame.com/images/products/starterdeck/st06/img_item.png"},
	"ST-07": {"2023-06-30", "https://en.onepiece-cardgame.com/images/products/starterdeck/st07/img_item.png"},
	"ST-08": {"2023-06-30", "https://en.onepiece-cardgame.com/images/products/starterdeck/st08/img_item.png"},
	"ST-09": {"2023-09-22", "https://en.onepiece-cardgame.com/images/products/starterdeck/st09/img_item.png"},
	"ST-10": {"2023-09-22", "https://en.onepiece-cardgame.com/images/products/starterdeck/st10/img_item.png"},
	"ST-11": {"2024-01-26", "https://en.onepiece-cardgame.com/images/products/starterdeck/st11/img_item.png"},
	"ST-12": {"2024-03-08", "https://en.onepiece-cardgame.com/images/products/starterdeck/st12/img_item.png"},
	"ST-13": {"2024-03-08", "https://en.onepiece-cardgame.com/images/products/starterdeck/st13/img_item.png"},
	"ST-14": {"2024-09-27", "https://en.onepiece-cardgame.com/images/products/starterdeck/st14/img_item.png"},
	"ST-15": {"2024-09-27", "https://en.onepiece-cardgame.com/images/products/starterdeck/st15/img_item.png"},
	"ST-16": {"2024-09-27", "https://en.onepiece-cardgame.com/images/products/starterdeck/st16/img_item.png"},
	"ST-17": {"2024-12-06", "https://en.onepiece-cardgame.com/images/products/starterdeck/st17/img_item.png"},
	"ST-18": {"2025-03-14", "https://en.onepiece-cardgame.com/images/products/starterdeck/st18/img_item.png"},
	"ST-19": {"2025-03-14", ""},
	"ST-20": {"2025-06-27", ""},
}

// withSetMetadata fills release date and image from the static table when known
func withSetMetadata(s CanonicalSet) CanonicalSet {
	meta, ok := knownSetMetadata[s.Code]
	if !ok {
		return s
	}
	if s.ReleaseDate == nil {
		s.ReleaseDate = optionalString(meta.ReleaseDate)
	}
	if s.ImageURL == nil {
		s.ImageURL = optionalString(meta.ImageURL)
	}
	return s
}
