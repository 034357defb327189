package model

import "time"

// Config is the complete VeriSense configuration.
// Precedence: CLI flags > environment > config file > DefaultConfig().
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	FactCheck FactCheckConfig `yaml:"factcheck" mapstructure:"factcheck"`
	NLP       NLPConfig       `yaml:"nlp" mapstructure:"nlp"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Reasoner  ReasonerConfig  `yaml:"reasoner" mapstructure:"reasoner"`
	Voice     VoiceConfig     `yaml:"voice" mapstructure:"voice"`
	News      NewsConfig      `yaml:"news" mapstructure:"news"`
	Social    SocialConfig    `yaml:"social" mapstructure:"social"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	CORSOrigins       []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables inbound limiting
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// HTTPConfig is shared by every outbound REST client
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes   int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// FactCheckConfig configures the claim-search service
type FactCheckConfig struct {
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty" mapstructure:"endpoint"` // Override for testing or proxies
	LanguageCode string `yaml:"language_code,omitempty" mapstructure:"language_code"`
}

// NLPConfig configures the entity-recognition service
type NLPConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Endpoint string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
}

// LLMConfig holds the reasoning model settings
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, gemini, ollama
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TopP        float64 `yaml:"top_p" mapstructure:"top_p"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ReasonerConfig selects the reasoning strategy
type ReasonerConfig struct {
	Mode     string `yaml:"mode" mapstructure:"mode"`         // llm, rules or heuristic
	Fallback string `yaml:"fallback" mapstructure:"fallback"` // heuristic or rules, used when the model call fails
}

// VoiceConfig configures speech-to-text and text-to-speech
type VoiceConfig struct {
	APIKey             string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL            string        `yaml:"base_url" mapstructure:"base_url"`
	TranscriptionModel string        `yaml:"transcription_model" mapstructure:"transcription_model"`
	SpeechModel        string        `yaml:"speech_model" mapstructure:"speech_model"`
	Voice              string        `yaml:"voice" mapstructure:"voice"`
	Dir                string        `yaml:"dir" mapstructure:"dir"` // Where synthesized audio is written
	TTL                time.Duration `yaml:"ttl" mapstructure:"ttl"` // How long synthesized audio stays downloadable
	ClosingUtterance   string        `yaml:"closing_utterance" mapstructure:"closing_utterance"`
}

// NewsConfig configures the aggregated news feeds
type NewsConfig struct {
	NewsAPIKey      string `yaml:"newsapi_key" mapstructure:"newsapi_key"`
	NewsAPIQuery    string `yaml:"newsapi_query" mapstructure:"newsapi_query"`
	NewsAPICountry  string `yaml:"newsapi_country" mapstructure:"newsapi_country"`
	NewsDataKey     string `yaml:"newsdata_key" mapstructure:"newsdata_key"`
	NewsDataQuery   string `yaml:"newsdata_query" mapstructure:"newsdata_query"`
	NewsDataCountry string `yaml:"newsdata_country" mapstructure:"newsdata_country"`
	RSSURL          string `yaml:"rss_url" mapstructure:"rss_url"`
	RespectRobots   bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// SocialConfig configures the forum and microblog sources
type SocialConfig struct {
	RedditClientID     string `yaml:"reddit_client_id" mapstructure:"reddit_client_id"`
	RedditSecret       string `yaml:"reddit_secret" mapstructure:"reddit_secret"`
	Subreddit          string `yaml:"subreddit" mapstructure:"subreddit"`
	RedditLimit        int    `yaml:"reddit_limit" mapstructure:"reddit_limit"`
	TwitterBearerToken string `yaml:"twitter_bearer_token" mapstructure:"twitter_bearer_token"`
	TwitterQuery       string `yaml:"twitter_query" mapstructure:"twitter_query"`
	TwitterMaxResults  int    `yaml:"twitter_max_results" mapstructure:"twitter_max_results"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8000",
			CORSOrigins: []string{
				"http://localhost:8080",
				"http://127.0.0.1:8080",
				"https://verisense.onrender.com",
			},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   2 * time.Minute,
			MaxUploadBytes: 25 << 20,
			Burst:          10,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "VeriSenseAgent/0.1 (+https://github.com/ppiankov/verisense)",
			MaxBytes:  4_000_000,
		},
		FactCheck: FactCheckConfig{},
		NLP:       NLPConfig{},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "qwen/qwen3-32b",
			BaseURL:     "https://api.groq.com/openai/v1",
			Timeout:     60,
			Temperature: 0.2,
			TopP:        0.9,
			MaxTokens:   2048,
		},
		Reasoner: ReasonerConfig{Mode: "llm", Fallback: "heuristic"},
		Voice: VoiceConfig{
			TranscriptionModel: "whisper-1",
			SpeechModel:        "tts-1",
			Voice:              "alloy",
			TTL:                time.Hour,
			ClosingUtterance:   "All claims processed. Check the dashboard for details.",
		},
		News: NewsConfig{
			NewsAPIQuery:    "crisis",
			NewsAPICountry:  "us",
			NewsDataQuery:   "india crisis",
			NewsDataCountry: "in",
			RSSURL:          "https://pib.gov.in/rssfeed.aspx",
			RespectRobots:   true,
		},
		Social: SocialConfig{
			Subreddit:         "worldnews",
			RedditLimit:       10,
			TwitterQuery:      "crisis",
			TwitterMaxResults: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Redacted returns a copy with secrets masked, for display
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.FactCheck.APIKey = mask(c.FactCheck.APIKey)
	c.NLP.APIKey = mask(c.NLP.APIKey)
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.Voice.APIKey = mask(c.Voice.APIKey)
	c.News.NewsAPIKey = mask(c.News.NewsAPIKey)
	c.News.NewsDataKey = mask(c.News.NewsDataKey)
	c.Social.RedditSecret = mask(c.Social.RedditSecret)
	c.Social.TwitterBearerToken = mask(c.Social.TwitterBearerToken)
	return c
}
