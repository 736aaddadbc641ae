package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"kwhmi/agent/internal/gpio"
	"kwhmi/agent/internal/keyword"
)

// Object is one controllable output and the port bit it drives.
type Object struct {
	Name string `validate:"required"`
	Bit  uint   `validate:"lte=31"`
}

type Config struct {
	Server struct {
		Addr     string `validate:"required"`
		LogLevel string `validate:"oneof=debug info"`
	}
	RPC struct {
		Addr string
	}
	Resolver struct {
		DebounceThreshold     int      `validate:"gte=1"`
		UnknownResetThreshold int      `validate:"gtfield=DebounceThreshold"`
		Objects               []Object `validate:"min=1,dive"`
	}
	Sink struct {
		Kind      string `validate:"oneof=log gpio both"`
		ActiveLow bool
	}
	Source struct {
		Cmd string
	}
	Producer struct {
		TokenSecret   string
		TokenSkewSecs int `validate:"gte=0"`
	}
	Journal struct {
		MaxEvents int `validate:"gte=2"`
	}
}

// Load reads defaults, an optional config file named by HMI_CONFIG, and the
// environment, in increasing precedence.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("rpc.addr", ":9095")

	v.SetDefault("resolver.debounce_threshold", 3)
	v.SetDefault("resolver.unknown_reset_threshold", 10)
	v.SetDefault("resolver.objects", "green:5,red:4")

	v.SetDefault("sink.kind", "log")
	v.SetDefault("sink.active_low", true)

	v.SetDefault("producer.token_skew_secs", 60)
	v.SetDefault("journal.max_events", 200)

	// Map envs
	v.BindEnv("config_file", "HMI_CONFIG")
	v.BindEnv("server.addr", "HMI_HTTP_ADDR")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("rpc.addr", "HMI_RPC_ADDR")

	v.BindEnv("resolver.debounce_threshold", "DEBOUNCE_THRESHOLD")
	v.BindEnv("resolver.unknown_reset_threshold", "UNKNOWN_RESET_THRESHOLD")
	v.BindEnv("resolver.objects", "HMI_OBJECTS")

	v.BindEnv("sink.kind", "HMI_SINK")
	v.BindEnv("sink.active_low", "HMI_GPIO_ACTIVE_LOW")

	v.BindEnv("source.cmd", "SOURCE_CMD")

	v.BindEnv("producer.token_secret", "PRODUCER_TOKEN_SECRET")
	v.BindEnv("producer.token_skew_secs", "PRODUCER_TOKEN_SKEW_SECS")

	v.BindEnv("journal.max_events", "JOURNAL_MAX_EVENTS")

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	c.Server.Addr = v.GetString("server.addr")
	c.Server.LogLevel = strings.ToLower(v.GetString("server.log_level"))
	c.RPC.Addr = v.GetString("rpc.addr")

	c.Resolver.DebounceThreshold = v.GetInt("resolver.debounce_threshold")
	c.Resolver.UnknownResetThreshold = v.GetInt("resolver.unknown_reset_threshold")
	objects, err := objectsFrom(v.Get("resolver.objects"))
	if err != nil {
		return Config{}, err
	}
	c.Resolver.Objects = objects

	c.Sink.Kind = strings.ToLower(v.GetString("sink.kind"))
	c.Sink.ActiveLow = v.GetBool("sink.active_low")

	c.Source.Cmd = v.GetString("source.cmd")

	c.Producer.TokenSecret = v.GetString("producer.token_secret")
	c.Producer.TokenSkewSecs = v.GetInt("producer.token_skew_secs")

	c.Journal.MaxEvents = v.GetInt("journal.max_events")

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	log.Printf("config loaded: http=%s rpc=%s sink=%s objects=%d", c.Server.Addr, c.RPC.Addr, c.Sink.Kind, len(c.Resolver.Objects))
	return c, nil
}

var validate = validator.New()

// Validate checks field constraints, that object names form a usable
// vocabulary and that no two objects share a port bit.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Vocabulary(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	owner := make(map[uint]string, len(c.Resolver.Objects))
	for _, o := range c.Resolver.Objects {
		if prev, ok := owner[o.Bit]; ok {
			return fmt.Errorf("invalid config: object %q reuses bit %d of %q", o.Name, o.Bit, prev)
		}
		owner[o.Bit] = o.Name
	}
	return nil
}

// Vocabulary builds the keyword vocabulary from the configured objects.
func (c Config) Vocabulary() (*keyword.Vocabulary, error) {
	names := make([]string, len(c.Resolver.Objects))
	for i, o := range c.Resolver.Objects {
		names[i] = o.Name
	}
	return keyword.NewVocabulary(names...)
}

// Pins maps each object to its port bit.
func (c Config) Pins() map[string]gpio.Pin {
	out := make(map[string]gpio.Pin, len(c.Resolver.Objects))
	for _, o := range c.Resolver.Objects {
		out[o.Name] = gpio.Pin{Bit: o.Bit, ActiveLow: c.Sink.ActiveLow}
	}
	return out
}

// objectsFrom accepts "green:5,red:4" from the environment, a list of
// such strings, or a list of {name, bit} maps from a config file.
func objectsFrom(raw any) ([]Object, error) {
	switch x := raw.(type) {
	case string:
		return ParseObjects(x)
	case []string:
		return ParseObjects(strings.Join(x, ","))
	case []any:
		var out []Object
		for i, item := range x {
			switch it := item.(type) {
			case string:
				objs, err := ParseObjects(it)
				if err != nil {
					return nil, err
				}
				out = append(out, objs...)
			case map[string]any:
				name := fmt.Sprint(it["name"])
				bit, err := strconv.ParseUint(fmt.Sprint(it["bit"]), 10, 8)
				if err != nil {
					return nil, fmt.Errorf("object %d: bad bit: %w", i, err)
				}
				out = append(out, Object{Name: strings.ToLower(name), Bit: uint(bit)})
			default:
				return nil, fmt.Errorf("object %d: unsupported value %T", i, item)
			}
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("resolver.objects: unsupported value %T", raw)
}

// ParseObjects reads "name:bit" pairs separated by commas. A missing bit
// takes the position in the list.
func ParseObjects(s string) ([]Object, error) {
	var out []Object
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, bitStr, hasBit := strings.Cut(part, ":")
		o := Object{Name: strings.ToLower(strings.TrimSpace(name)), Bit: uint(i)}
		if hasBit {
			bit, err := strconv.ParseUint(strings.TrimSpace(bitStr), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("object %q: bad bit %q: %w", name, bitStr, err)
			}
			o.Bit = uint(bit)
		}
		out = append(out, o)
	}
	return out, nil
}
