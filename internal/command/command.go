// Package command turns raw chat text into a structured Command before any
// handler runs. Dispatch is an ordered table of matchers over the
// lower-cased first word; the leading slash is optional everywhere.
package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"signal-desk/internal/domain"
	"signal-desk/internal/pricing"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindHelp
	KindSignal
	KindDelete
	KindSaveCreative
	KindUseCreative
	KindListCreatives
	KindClearCreative
	KindListLinks
	KindAddLinks
	KindClearLink
	KindTotalSignals
	KindMemberTotal
	KindViews
	KindChannelStats
	KindFormat
	KindResetFormat
	KindCancel
)

// LinkPair is one ticker/URL pair from an addlink command.
type LinkPair struct {
	Ticker string
	URL    string
}

// Command is the parsed form of one inbound message. Only the fields
// relevant to Kind are set.
type Command struct {
	Kind   Kind
	Signal pricing.Input
	URL    string
	Key    string
	All    bool
	Links  []LinkPair
	Years  []int
	Member string
}

// Mutating reports whether the command changes store or channel state and
// therefore requires the caller to be on the allow-list.
func (c Command) Mutating() bool {
	switch c.Kind {
	case KindSignal, KindDelete, KindSaveCreative, KindClearCreative,
		KindAddLinks, KindClearLink, KindFormat, KindResetFormat:
		return true
	}
	return false
}

// Parser resolves member-total commands against the fixed sender roster.
type Parser struct {
	roster map[string]string
}

// NewParser builds a parser. Roster entries are the attribution labels a
// total<member> query may name; matching is case-insensitive.
func NewParser(roster []string) *Parser {
	m := make(map[string]string, len(roster))
	for _, name := range roster {
		m[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(name)
	}
	return &Parser{roster: m}
}

var creativeKeyRe = regexp.MustCompile(`^fix\d+$`)

// Parse maps text to a Command. A recognized command with malformed
// arguments returns a domain.ErrValidation wrap naming the expected shape;
// text that matches nothing returns KindUnknown with a nil error.
func (p *Parser) Parse(text string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return Command{}, nil
	}
	word := strings.TrimPrefix(strings.ToLower(fields[0]), "/")
	args := fields[1:]

	for _, m := range p.table() {
		if m.match(word) {
			return m.build(word, args)
		}
	}
	return Command{}, nil
}

type matcher struct {
	match func(word string) bool
	build func(word string, args []string) (Command, error)
}

func word(names ...string) func(string) bool {
	return func(w string) bool {
		for _, n := range names {
			if w == n {
				return true
			}
		}
		return false
	}
}

func (p *Parser) table() []matcher {
	return []matcher{
		{word("start"), func(string, []string) (Command, error) { return Command{Kind: KindStart}, nil }},
		{word("help"), func(string, []string) (Command, error) { return Command{Kind: KindHelp}, nil }},
		{word("cancel"), func(string, []string) (Command, error) { return Command{Kind: KindCancel}, nil }},
		{word("signal"), func(_ string, args []string) (Command, error) { return parseSignal(args) }},
		{word("delete"), func(string, []string) (Command, error) { return Command{Kind: KindDelete}, nil }},
		{word("use"), parseUse},
		{creativeKeyRe.MatchString, func(w string, _ []string) (Command, error) {
			return Command{Kind: KindSaveCreative, Key: w}, nil
		}},
		{word("list"), func(string, []string) (Command, error) { return Command{Kind: KindListCreatives}, nil }},
		{word("clearfix"), parseClearCreative},
		{word("links"), func(string, []string) (Command, error) { return Command{Kind: KindListLinks}, nil }},
		{word("addlink"), parseAddLinks},
		{word("clearlink"), parseClearLink},
		{word("channelstats"), func(string, []string) (Command, error) { return Command{Kind: KindChannelStats}, nil }},
		{word("format"), parseFormat},
		{hasYearSuffix("totalsignal"), yearsBuilder("totalsignal", KindTotalSignals)},
		{hasYearSuffix("views"), yearsBuilder("views", KindViews)},
		{p.isMemberTotal, p.parseMemberTotal},
	}
}

const signalUsage = "signal TICKER ENTRY SL LEVERAGEx [custom_link]\nExample: signal ETH 3450 3300 3x"

func parseSignal(args []string) (Command, error) {
	if len(args) < 4 {
		return Command{}, fmt.Errorf("%w: expected %s", domain.ErrValidation, signalUsage)
	}
	entry, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return Command{}, fmt.Errorf("%w: ENTRY must be a number (%s)", domain.ErrValidation, signalUsage)
	}
	stop, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return Command{}, fmt.Errorf("%w: SL must be a number (%s)", domain.ErrValidation, signalUsage)
	}
	levToken := strings.TrimSuffix(strings.ToLower(args[3]), "x")
	lev, err := strconv.Atoi(levToken)
	if err != nil || lev <= 0 {
		return Command{}, fmt.Errorf("%w: LEVERAGE must look like 3x (%s)", domain.ErrValidation, signalUsage)
	}

	cmd := Command{
		Kind: KindSignal,
		Signal: pricing.Input{
			Ticker:    strings.ToUpper(args[0]),
			Entry1:    entry,
			StopLoss:  stop,
			Leverage:  lev,
			EntryText: args[1],
			StopText:  args[2],
		},
	}
	if len(args) >= 5 && strings.HasPrefix(args[4], "http") {
		cmd.URL = args[4]
	}
	return cmd, nil
}

func parseUse(_ string, args []string) (Command, error) {
	if len(args) != 1 || !creativeKeyRe.MatchString(strings.ToLower(args[0])) {
		return Command{}, fmt.Errorf("%w: expected use fix<N>, e.g. use fix1", domain.ErrValidation)
	}
	return Command{Kind: KindUseCreative, Key: strings.ToLower(args[0])}, nil
}

func parseClearCreative(_ string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("%w: expected clearfix <N|all>", domain.ErrValidation)
	}
	arg := strings.ToLower(args[0])
	if arg == "all" {
		return Command{Kind: KindClearCreative, All: true}, nil
	}
	if creativeKeyRe.MatchString(arg) {
		return Command{Kind: KindClearCreative, Key: arg}, nil
	}
	if _, err := strconv.Atoi(arg); err == nil {
		return Command{Kind: KindClearCreative, Key: "fix" + arg}, nil
	}
	return Command{}, fmt.Errorf("%w: expected clearfix <N|all>", domain.ErrValidation)
}

func parseAddLinks(_ string, args []string) (Command, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return Command{}, fmt.Errorf("%w: expected addlink TICKER URL [TICKER URL ...]", domain.ErrValidation)
	}
	pairs := make([]LinkPair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if !strings.HasPrefix(args[i+1], "http") {
			return Command{}, fmt.Errorf("%w: %q is not a URL (expected addlink TICKER URL ...)", domain.ErrValidation, args[i+1])
		}
		pairs = append(pairs, LinkPair{Ticker: strings.ToUpper(args[i]), URL: args[i+1]})
	}
	return Command{Kind: KindAddLinks, Links: pairs}, nil
}

func parseClearLink(_ string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, fmt.Errorf("%w: expected clearlink <TICKER|all>", domain.ErrValidation)
	}
	if strings.EqualFold(args[0], "all") {
		return Command{Kind: KindClearLink, All: true}, nil
	}
	return Command{Kind: KindClearLink, Key: strings.ToUpper(args[0])}, nil
}

func parseFormat(_ string, args []string) (Command, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "reset") {
		return Command{Kind: KindResetFormat}, nil
	}
	if len(args) != 0 {
		return Command{}, fmt.Errorf("%w: expected format (then send the template) or format reset", domain.ErrValidation)
	}
	return Command{Kind: KindFormat}, nil
}

func hasYearSuffix(prefix string) func(string) bool {
	return func(w string) bool {
		rest := strings.TrimPrefix(w, prefix)
		return strings.HasPrefix(w, prefix) && isYearRun(rest)
	}
}

func yearsBuilder(prefix string, kind Kind) func(string, []string) (Command, error) {
	return func(w string, args []string) (Command, error) {
		years, err := parseYears(strings.TrimPrefix(w, prefix), args)
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Years: years}, nil
	}
}

func (p *Parser) isMemberTotal(w string) bool {
	rest := strings.TrimPrefix(w, "total")
	if !strings.HasPrefix(w, "total") || rest == "" {
		return false
	}
	name := strings.TrimRight(rest, "0123456789")
	if name == "" || name == "signal" {
		return false
	}
	_, ok := p.roster[name]
	return ok
}

func (p *Parser) parseMemberTotal(w string, args []string) (Command, error) {
	rest := strings.TrimPrefix(w, "total")
	name := strings.TrimRight(rest, "0123456789")
	years, err := parseYears(strings.TrimPrefix(rest, name), args)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: KindMemberTotal, Member: p.roster[name], Years: years}, nil
}

func isYearRun(s string) bool {
	if len(s)%4 != 0 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseYears accepts years glued to the command word (totalsignal20242025)
// or as separate tokens (totalsignal 2024 2025). No years means all years.
func parseYears(glued string, args []string) ([]int, error) {
	var years []int
	if !isYearRun(glued) {
		return nil, fmt.Errorf("%w: years must be 4-digit groups, e.g. totalsignal20242025", domain.ErrValidation)
	}
	for i := 0; i+4 <= len(glued); i += 4 {
		y, _ := strconv.Atoi(glued[i : i+4])
		years = append(years, y)
	}
	for _, arg := range args {
		y, err := strconv.Atoi(arg)
		if err != nil || y < 1970 || y > 9999 {
			return nil, fmt.Errorf("%w: %q is not a year", domain.ErrValidation, arg)
		}
		years = append(years, y)
	}
	return years, nil
}
