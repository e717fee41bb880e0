// =============================
// File: internal/dex/pumpfun/types.go
// =============================
package pumpfun

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/pumpfun-txkit/internal/blockchain/solbc/transaction"
)

// Pool selects where a trade is routed.
type Pool string

const (
	PoolPump    Pool = "pump"
	PoolRaydium Pool = "raydium"
)

// BuyRequest describes a purchase of Mint for AmountSol lamports.
type BuyRequest struct {
	Wallet          solana.PrivateKey
	Mint            solana.PublicKey
	AmountSol       uint64
	SlippagePercent float64
	Pool            Pool
	PriorityFee     *transaction.PriorityFee
	Commitment      rpc.CommitmentType
	Finality        rpc.CommitmentType
	Simulate        bool
}

// SellRequest describes a sale of TokenAmount base units of Mint.
type SellRequest struct {
	Wallet          solana.PrivateKey
	Mint            solana.PublicKey
	TokenAmount     uint64
	SlippagePercent float64
	Pool            Pool
	PriorityFee     *transaction.PriorityFee
	Commitment      rpc.CommitmentType
	Finality        rpc.CommitmentType
	Simulate        bool
}

// CreateTokenMetadata - данные для создания токена. File содержит изображение.
type CreateTokenMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	File        []byte `json:"-"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
}

// TokenMetadata - JSON-документ, на который ссылается CreateEvent.URI.
type TokenMetadata struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ShowName    bool   `json:"showName"`
	CreatedOn   string `json:"createdOn"`
	Twitter     string `json:"twitter"`
	Telegram    string `json:"telegram,omitempty"`
	Website     string `json:"website,omitempty"`
}

// CreateEvent is emitted when a new token is launched.
type CreateEvent struct {
	Name         string
	Symbol       string
	URI          string
	Mint         solana.PublicKey
	BondingCurve solana.PublicKey
	User         solana.PublicKey
}

// TradeEvent is emitted on every buy and sell against a bonding curve.
type TradeEvent struct {
	Mint                 solana.PublicKey
	SolAmount            uint64
	TokenAmount          uint64
	IsBuy                bool
	User                 solana.PublicKey
	Timestamp            int64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	RealTokenReserves    uint64
}

// CompleteEvent is emitted when a bonding curve completes.
type CompleteEvent struct {
	User         solana.PublicKey
	Mint         solana.PublicKey
	BondingCurve solana.PublicKey
	Timestamp    int64
}

// SetParamsEvent is emitted when the global parameters change.
type SetParamsEvent struct {
	FeeRecipient                solana.PublicKey
	InitialVirtualTokenReserves uint64
	InitialVirtualSolReserves   uint64
	InitialRealTokenReserves    uint64
	TokenTotalSupply            uint64
	FeeBasisPoints              uint64
}

// EventType - ключ типа события программы.
type EventType string

const (
	EventCreate    EventType = "createEvent"
	EventTrade     EventType = "tradeEvent"
	EventComplete  EventType = "completeEvent"
	EventSetParams EventType = "setParamsEvent"
)

// Event - декодированное событие. Payload содержит одно из
// CreateEvent, TradeEvent, CompleteEvent, SetParamsEvent.
type Event struct {
	Type    EventType
	Payload interface{}
}
