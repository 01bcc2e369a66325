package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

var (
	DefaultLocation string = "./signpdf.conf" // Default location of the config file
	Settings        Config                    // Initialized once inside Read method Settings are stored in memory.
)

// Config is the root of the config
type Config struct {
	Bundle          string `toml:"bundle" valid:"required"`
	Passphrase      string `toml:"passphrase" valid:"optional"`
	StrictDecoding  bool   `toml:"strict_decoding" valid:"optional"`
	Placeholder     string `toml:"placeholder" valid:"optional,printableascii"`
	LogLevel        string `toml:"log_level" valid:"optional,in(trace|debug|info|warn|error|fatal|panic)"`
	EmbedRevocation bool   `toml:"embed_revocation" valid:"optional"`
	TSA             TSA    `toml:"tsa" valid:"optional"`
}

// TSA configures the optional timestamp authority.
type TSA struct {
	URL      string `toml:"url" valid:"optional,url"`
	Username string `toml:"username" valid:"optional"`
	Password string `toml:"password" valid:"optional"`
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}
	return nil
}

// Read loads and validates configfile and stores the result in Settings.
func Read(configfile string) error {
	_, err := os.Stat(configfile)
	if err != nil {
		return fmt.Errorf("config file is missing: %s", configfile)
	}

	var c Config
	if _, err := toml.DecodeFile(configfile, &c); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if err := c.ValidateFields(); err != nil {
		return fmt.Errorf("config is not valid: %w", err)
	}

	Settings = c
	return nil
}
