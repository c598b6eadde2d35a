package pricing

import "errors"

// カート操作の想定内エラー。呼び出し側（UI/usecase）が回復する。
var (
	//バリアント必須の商品にバリアント未指定で追加した
	ErrVariantRequired = errors.New("variant required")
	//クランプしても1個も追加できない
	ErrOutOfStock = errors.New("out of stock")
	//別の販売者の商品を確認なしで追加しようとした
	ErrSellerConflict = errors.New("seller conflict")
	//数量が1未満
	ErrInvalidQuantity = errors.New("invalid quantity")
)
