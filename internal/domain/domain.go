package domain

import "time"

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

func (d Direction) Emoji() string {
	if d == DirectionLong {
		return "📈"
	}
	return "📉"
}

func (d Direction) IsValid() bool {
	return d == DirectionLong || d == DirectionShort
}

// PriceSet carries the display form of every computed price, echoing the
// precision of the operator's input where it was available.
type PriceSet struct {
	Entry1          string `json:"entry1"`
	Entry2          string `json:"entry2"`
	AvgEntry        string `json:"avg_entry"`
	TakeProfit1     string `json:"tp1"`
	TakeProfit2     string `json:"tp2"`
	StopLoss        string `json:"sl"`
	PotentialProfit string `json:"potential_profit"`
	StopLossPercent string `json:"sl_percent"`
}

// SignalRecord is the computed outcome of one signal command. SequenceID,
// CreatedAt, Sender and the channel message reference are stamped at publish
// time; everything else comes out of the pricing engine.
type SignalRecord struct {
	SequenceID      string    `json:"sequence_id,omitempty"`
	Ticker          string    `json:"ticker"`
	Direction       Direction `json:"direction"`
	Entry1          float64   `json:"entry1"`
	Entry2          float64   `json:"entry2"`
	AvgEntry        float64   `json:"avg_entry"`
	TakeProfit1     float64   `json:"tp1"`
	TakeProfit2     float64   `json:"tp2"`
	StopLoss        float64   `json:"sl"`
	Leverage        int       `json:"leverage"`
	RiskPercent     float64   `json:"risk_percent"`
	HoldingTime     string    `json:"holding_time"`
	PotentialProfit float64   `json:"potential_profit"`
	TradeURL        string    `json:"trade_url"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	Sender          string    `json:"sender,omitempty"`
	MessageID       int       `json:"message_id,omitempty"`
	ChatID          int64     `json:"chat_id,omitempty"`
	Display         PriceSet  `json:"display"`
}

// MessageRef points at the last published channel message so a later delete
// command can remove it remotely and evict the stored record.
type MessageRef struct {
	MessageID int    `json:"message_id"`
	ChatID    int64  `json:"chat_id"`
	Year      string `json:"year"`
	Month     string `json:"month"`
	Sequence  string `json:"sequence"`
}

// CreativeRef is an opaque transport handle for a stored image. For Telegram
// it is a file id; re-sending one avoids a re-upload.
type CreativeRef string
