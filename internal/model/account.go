// internal/model/account.go
package model

// AccountMeta is one positional entry of an invocation's account list.
type AccountMeta struct {
	Address    Address `json:"address"`
	IsSigner   bool    `json:"is_signer"`
	IsWritable bool    `json:"is_writable"`
}

// Account is the ledger's view of an allocated storage account.
type Account struct {
	Address  Address `json:"address"`
	Owner    Address `json:"owner"`
	Lamports uint64  `json:"lamports"`
	Data     []byte  `json:"data"`
}
