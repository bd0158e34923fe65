package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	ChannelID        string
	AdminIDs         []int64

	StorePath     string
	SeedLinksPath string
	RedisURL      string

	TradeURLBase   string
	ChallengeURL   string
	LeaderboardURL string

	ConfirmPhrase    string
	ConfirmTokens    map[string]string
	DefaultSender    string
	Senders          []string
	RequireSavedLink bool
	AllowPublicReads bool

	HTTPPort           int
	SheetWebhookURL    string
	MemberSnapshotHour int
	MCPEnabled         bool
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ChannelID:        os.Getenv("CHANNEL_ID"),
		SheetWebhookURL:  os.Getenv("SHEET_WEBHOOK_URL"),
		SeedLinksPath:    os.Getenv("SEED_LINKS_PATH"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.ChannelID == "" {
		log.Println("Warning: CHANNEL_ID not set")
	}

	cfg.AdminIDs = parseIDList(os.Getenv("ADMIN_IDS"))
	if len(cfg.AdminIDs) == 0 {
		log.Println("Warning: ADMIN_IDS not set, every caller may post")
	}

	cfg.StorePath = strings.TrimSpace(os.Getenv("STORE_PATH"))
	if cfg.StorePath == "" {
		cfg.StorePath = "data/store.json"
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, analytics cache disabled")
	}

	cfg.TradeURLBase = strings.TrimSpace(os.Getenv("TRADE_URL_BASE"))
	if cfg.TradeURLBase == "" {
		cfg.TradeURLBase = "https://mudrex.com/trade/"
	}
	cfg.ChallengeURL = strings.TrimSpace(os.Getenv("CHALLENGE_URL"))
	cfg.LeaderboardURL = strings.TrimSpace(os.Getenv("LEADERBOARD_URL"))

	cfg.ConfirmPhrase = strings.TrimSpace(os.Getenv("CONFIRM_PHRASE"))
	if cfg.ConfirmPhrase == "" {
		cfg.ConfirmPhrase = "post"
	}
	cfg.ConfirmTokens = parseTokenMap(os.Getenv("CONFIRM_TOKENS"))
	cfg.DefaultSender = strings.TrimSpace(os.Getenv("DEFAULT_SENDER"))
	cfg.Senders = parseNameList(os.Getenv("SENDERS"))
	if len(cfg.Senders) == 0 {
		for _, sender := range cfg.ConfirmTokens {
			cfg.Senders = append(cfg.Senders, sender)
		}
	}

	cfg.RequireSavedLink = strings.EqualFold(strings.TrimSpace(os.Getenv("REQUIRE_SAVED_LINK")), "true")
	cfg.AllowPublicReads = strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_PUBLIC_READS")), "true")

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.MemberSnapshotHour = 0
	if v := strings.TrimSpace(os.Getenv("MEMBER_SNAPSHOT_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.MemberSnapshotHour = n
		}
	}

	cfg.MCPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_ENABLED")), "true")

	return cfg
}

func parseIDList(raw string) []int64 {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Warning: ignoring non-numeric admin id %q", part)
			continue
		}
		out = append(out, id)
	}
	return out
}

func parseNameList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTokenMap reads CONFIRM_TOKENS entries shaped token=Sender, comma
// separated, e.g. "post-as-alex=Alex,post-as-priya=Priya".
func parseTokenMap(raw string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		token, sender, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(token) == "" || strings.TrimSpace(sender) == "" {
			log.Printf("Warning: ignoring malformed confirm token entry %q", part)
			continue
		}
		out[strings.TrimSpace(token)] = strings.TrimSpace(sender)
	}
	return out
}
