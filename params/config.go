package params

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Token struct {
	// Address identifies the asset ledger; must not be the zero address
	// (that is the ether sentinel).
	Address string
	Name    string
	Symbol  string
	// Supply in whole tokens; scaled by 10^18 at mint time.
	Supply int64
	// Deployer receives the entire supply at construction.
	Deployer string
}

type Exchange struct {
	// Address is the exchange's own custody identity in asset ledgers.
	Address    string
	FeeAccount string
	FeePercent int64
}

type Node struct {
	ListenAddr string
	DBPath     string
	LogFile    string
}

type Config struct {
	Token    Token
	Exchange Exchange
	Node     Node
}

func Default() Config {
	return Config{
		Token: Token{
			Address:  "0x0000000000000000000000000000000000000001",
			Name:     "Haejoon Coin",
			Symbol:   "HJC",
			Supply:   1_000_000,
			Deployer: "0x00000000000000000000000000000000000000d0",
		},
		Exchange: Exchange{
			Address:    "0x0000000000000000000000000000000000000002",
			FeeAccount: "0x00000000000000000000000000000000000000fe",
			FeePercent: 10,
		},
		Node: Node{
			ListenAddr: ":8420",
			DBPath:     "data/journal.db",
			LogFile:    "data/dexd.log",
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Token.Address = getEnv("TOKEN_ADDRESS", cfg.Token.Address)
	cfg.Token.Name = getEnv("TOKEN_NAME", cfg.Token.Name)
	cfg.Token.Symbol = getEnv("TOKEN_SYMBOL", cfg.Token.Symbol)
	cfg.Token.Deployer = getEnv("TOKEN_DEPLOYER", cfg.Token.Deployer)
	if supply := os.Getenv("TOKEN_SUPPLY"); supply != "" {
		if n, err := strconv.ParseInt(supply, 10, 64); err == nil && n > 0 {
			cfg.Token.Supply = n
		}
	}

	cfg.Exchange.Address = getEnv("EXCHANGE_ADDRESS", cfg.Exchange.Address)
	cfg.Exchange.FeeAccount = getEnv("FEE_ACCOUNT", cfg.Exchange.FeeAccount)
	if pct := os.Getenv("FEE_PERCENT"); pct != "" {
		if n, err := strconv.ParseInt(pct, 10, 64); err == nil && n >= 0 && n <= 100 {
			cfg.Exchange.FeePercent = n
		}
	}

	cfg.Node.ListenAddr = getEnv("LISTEN_ADDR", cfg.Node.ListenAddr)
	cfg.Node.DBPath = getEnv("DB_PATH", cfg.Node.DBPath)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)

	return cfg
}

// getEnv returns the environment variable value or the default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
