package nikabot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ajzo90/tap-nikabot"
	api "github.com/ajzo90/tap-nikabot/pkg/nikabot"
	"github.com/valyala/fastjson"
)

// TokenEnv fills a missing access_token.
const TokenEnv = "NIKABOT_ACCESS_TOKEN"

type Config struct {
	AccessToken tap.MaskedString `json:"access_token" formType:"secret"`
	PageSize    int              `json:"page_size,omitempty" default:"1000"`
	StartDate   *tap.Date        `json:"start_date,omitempty" hint:"2020-01-01"`
	EndDate     *tap.Date        `json:"end_date,omitempty" hint:"2020-12-31"`
	// CutoffDays excludes the most recent days from incremental syncs of
	// records when no end_date is configured.
	CutoffDays *int   `json:"cutoff_days,omitempty"`
	BaseURL    string `json:"base_url,omitempty" hint:"https://api.nikabot.com"`
}

// ParseConfig decodes a JSON config and applies defaults.
func ParseConfig(b []byte) (Config, error) {
	var config Config
	b, err := numericStrings(b, "page_size", "cutoff_days")
	if err != nil {
		return config, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&config); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	config = config.withDefaults()
	return config, config.Validate()
}

// numericStrings rewrites the given top level keys from "123" to 123, Singer
// configs often carry numbers as strings.
func numericStrings(b []byte, keys ...string) ([]byte, error) {
	v, err := fastjson.ParseBytes(b)
	if err != nil || v.Type() != fastjson.TypeObject {
		// left to the decoder to report
		return b, nil
	}
	var a fastjson.Arena
	obj, _ := v.Object()
	for _, k := range keys {
		f := obj.Get(k)
		if f == nil || f.Type() != fastjson.TypeString {
			continue
		}
		s := strings.TrimSpace(string(f.GetStringBytes()))
		if s == "" {
			obj.Del(k)
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid config: %s must be an integer, got '%s'", k, s)
		}
		obj.Set(k, a.NewNumberInt(n))
	}
	return v.MarshalTo(nil), nil
}

func (c Config) withDefaults() Config {
	if c.PageSize == 0 {
		c.PageSize = api.DefaultPageSize
	}
	if c.AccessToken == "" {
		c.AccessToken = tap.MaskedString(os.Getenv(TokenEnv))
	}
	if c.BaseURL == "" {
		c.BaseURL = api.BaseURL
	}
	return c
}

func (c Config) Validate() error {
	switch {
	case c.AccessToken == "":
		return fmt.Errorf("config: access_token is required")
	case c.PageSize < 0:
		return fmt.Errorf("config: page_size must not be negative, got %d", c.PageSize)
	case c.CutoffDays != nil && *c.CutoffDays < 0:
		return fmt.Errorf("config: cutoff_days must not be negative, got %d", *c.CutoffDays)
	}
	return nil
}
