package mcp

import "signal-desk/internal/analytics"

type listSignalsInput struct {
	Years  []int  `json:"years,omitempty" jsonschema:"calendar years to include, empty for all"`
	Ticker string `json:"ticker,omitempty" jsonschema:"restrict to one ticker symbol, e.g. BTC"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of records to return, newest last"`
}

type signalSummary struct {
	SequenceID string `json:"sequence_id"`
	Ticker     string `json:"ticker"`
	Direction  string `json:"direction"`
	Entry1     string `json:"entry1"`
	Entry2     string `json:"entry2"`
	TakeProfit string `json:"take_profit1"`
	StopLoss   string `json:"stop_loss"`
	Leverage   int    `json:"leverage"`
	Sender     string `json:"sender,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type listSignalsOutput struct {
	Total   int             `json:"total" jsonschema:"total records matched before limit"`
	Signals []signalSummary `json:"signals"`
}

type signalStatsInput struct {
	Years  []int  `json:"years,omitempty" jsonschema:"calendar years to include, empty for all"`
	Sender string `json:"sender,omitempty" jsonschema:"restrict to signals posted by one sender"`
}

type signalStatsOutput struct {
	Report analytics.Report      `json:"report"`
	Views  analytics.ViewsReport `json:"views"`
}

type listLinksInput struct{}

type listLinksOutput struct {
	Links map[string]string `json:"links" jsonschema:"ticker to trade URL"`
}
