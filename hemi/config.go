// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Server configuration and its configurator.

package hemi

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hexinfra/httpd/hemi/libraries/config"
)

// Config is the configuration of a Server.
type Config struct {
	Name             string
	Host             string            // host to listen on and to be known as
	Port             int               // 0 means any free port
	SecondaryDefault bool              // also known as 127.0.0.1?
	Locations        []string          // extra locations like "http://example.local:3000"
	Directories      map[string]string // prefix -> directory
	IndexFile        string            // appended to directory paths ending with '/'
	LargeFileSize    int64             // files larger than this are streamed
	ChunkSize        int               // size of streamed chunks
	SendTimeout      time.Duration     // timeout of sending each chunk
	MaxHeadSize      int               // max size of request line and headers
	MaxContentSize   int64             // max size of request content
	SmallFileSize    int64             // files not larger than this are cached in memory
	CacheTimeout     time.Duration     // how long cached files live
	Log              LogConfig
}

// NewConfig returns a config with default values.
func NewConfig() *Config {
	return &Config{
		Name:             "main",
		Host:             "localhost",
		Port:             3000,
		SecondaryDefault: true,
		IndexFile:        "index.html",
		LargeFileSize:    1 * config.M,
		ChunkSize:        64 * config.K,
		SendTimeout:      30 * time.Second,
		MaxHeadSize:      16 * config.K,
		MaxContentSize:   16 * config.M,
		SmallFileSize:    64 * config.K,
		CacheTimeout:     time.Minute,
		Log:              LogConfig{Kind: "console"},
	}
}

// ConfigFromText parses a config in text. Relative paths in it are relative to BaseDir().
func ConfigFromText(text string) (cfg *Config, err error) {
	defer func() {
		if x := recover(); x != nil {
			err = x.(error)
		}
	}()
	c := newConfigurator(BaseDir())
	c.ScanText(text)
	return c.parse(), nil
}

// ConfigFromFile parses a config file. Relative paths in it are relative to base.
func ConfigFromFile(base string, file string) (cfg *Config, err error) {
	defer func() {
		if x := recover(); x != nil {
			err = x.(error)
		}
	}()
	c := newConfigurator(base)
	c.ScanFile(base, file)
	return c.parse(), nil
}

// configurator parses config text into a Config. Errors are raised as panics.
type configurator struct {
	// Mixins
	config.Parser_
	// States
	base  string                  // base directory of relative paths
	name  string                  // name of the server
	props map[string]config.Value // props of the server
	used  map[string]bool         // props that are configured
}

func newConfigurator(base string) *configurator {
	c := new(configurator)
	c.base = base
	c.props = make(map[string]config.Value)
	c.used = make(map[string]bool)
	constants := map[string]string{
		"baseDir": BaseDir(),
		"logsDir": LogsDir(),
	}
	c.Init(constants, nil)
	return c
}

// parse parses: httpServer "name" { prop = value ... }
func (c *configurator) parse() *Config {
	sign := c.Expect(config.TokenWord)
	if sign.Text != "httpServer" {
		panic(fmt.Errorf("config: unknown component %s (in line %d)", sign.Text, sign.Line))
	}
	if c.NextIs(config.TokenString) {
		c.name = c.Forward().Text
	} else {
		c.name = c.NewName()
	}
	c.ForwardExpect(config.TokenLeftBrace)
	for {
		current := c.Forward()
		if current.Kind == config.TokenRightBrace {
			break
		}
		prop := c.Expect(config.TokenWord)
		if _, ok := c.props[prop.Text]; ok {
			panic(fmt.Errorf("config: duplicate prop %s (in line %d)", prop.Text, prop.Line))
		}
		c.ForwardExpect(config.TokenEqual)
		c.Forward()
		var value config.Value
		c.ParseValue(&value)
		c.props[prop.Text] = value
	}
	if !c.AtLast() {
		current := c.Forward()
		panic(fmt.Errorf("config: unexpected %s after httpServer (in line %d)", current.Text, current.Line))
	}
	return c.configure()
}

func (c *configurator) configure() *Config {
	cfg := NewConfig()
	cfg.Name = c.name

	// .host
	c.configureString("host", &cfg.Host, func(value string) error {
		if identityHostRegexp.MatchString(value) {
			return nil
		}
		return errors.New(".host has an invalid value")
	}, cfg.Host)

	// .port
	c.configureInt("port", &cfg.Port, func(value int) error {
		if value >= 0 && value <= 65535 {
			return nil
		}
		return errors.New(".port has an invalid value")
	}, cfg.Port)

	// .secondaryDefault
	c.configureBool("secondaryDefault", &cfg.SecondaryDefault, cfg.SecondaryDefault)

	// .locations
	c.configureStringList("locations", &cfg.Locations, func(value []string) error {
		for _, location := range value {
			if _, err := ParseLocation(location); err != nil {
				return fmt.Errorf(".locations has an invalid location %s: %w", location, err)
			}
		}
		return nil
	}, nil)

	// .directories
	c.configureStringDict("directories", &cfg.Directories, func(value map[string]string) error {
		for prefix, dir := range value {
			if prefix == "" || prefix[0] != '/' || prefix[len(prefix)-1] != '/' {
				return fmt.Errorf(".directories has an invalid prefix %s", prefix)
			}
			if dir == "" {
				return fmt.Errorf(".directories has an empty directory for %s", prefix)
			}
		}
		return nil
	}, nil)
	for prefix, dir := range cfg.Directories {
		cfg.Directories[prefix] = c.absPath(dir)
	}

	// .indexFile
	c.configureString("indexFile", &cfg.IndexFile, func(value string) error {
		if value != "" && !strings.Contains(value, "/") {
			return nil
		}
		return errors.New(".indexFile has an invalid value")
	}, cfg.IndexFile)

	// .largeFileSize
	c.configureInt64("largeFileSize", &cfg.LargeFileSize, func(value int64) error {
		if value >= 0 {
			return nil
		}
		return errors.New(".largeFileSize has an invalid value")
	}, cfg.LargeFileSize)

	// .chunkSize
	c.configureInt("chunkSize", &cfg.ChunkSize, func(value int) error {
		if value > 0 {
			return nil
		}
		return errors.New(".chunkSize has an invalid value")
	}, cfg.ChunkSize)

	// .sendTimeout
	c.configureDuration("sendTimeout", &cfg.SendTimeout, func(value time.Duration) error {
		if value > 0 {
			return nil
		}
		return errors.New(".sendTimeout has an invalid value")
	}, cfg.SendTimeout)

	// .maxHeadSize
	c.configureInt("maxHeadSize", &cfg.MaxHeadSize, func(value int) error {
		if value >= 256 {
			return nil
		}
		return errors.New(".maxHeadSize has an invalid value")
	}, cfg.MaxHeadSize)

	// .maxContentSize
	c.configureInt64("maxContentSize", &cfg.MaxContentSize, func(value int64) error {
		if value >= 0 {
			return nil
		}
		return errors.New(".maxContentSize has an invalid value")
	}, cfg.MaxContentSize)

	// .smallFileSize
	c.configureInt64("smallFileSize", &cfg.SmallFileSize, func(value int64) error {
		if value >= 0 {
			return nil
		}
		return errors.New(".smallFileSize has an invalid value")
	}, cfg.SmallFileSize)

	// .cacheTimeout
	c.configureDuration("cacheTimeout", &cfg.CacheTimeout, func(value time.Duration) error {
		if value > 0 {
			return nil
		}
		return errors.New(".cacheTimeout has an invalid value")
	}, cfg.CacheTimeout)

	// .logger
	c.configureString("logger", &cfg.Log.Kind, func(value string) error {
		if loggerRegistered(value) {
			return nil
		}
		return errors.New(".logger is not a registered logger")
	}, cfg.Log.Kind)

	// .logFile
	c.configureString("logFile", &cfg.Log.Target, nil, "")
	if cfg.Log.Target != "" {
		cfg.Log.Target = c.absPath(cfg.Log.Target)
	}

	// .logRotate
	c.configureString("logRotate", &cfg.Log.Rotate, func(value string) error {
		if value == "" || value == "day" || value == "hour" {
			return nil
		}
		return errors.New(".logRotate has an invalid value")
	}, "")

	// .dumpInput
	c.configureBool("dumpInput", &cfg.Log.DumpInput, false)

	// .dumpOutput
	c.configureBool("dumpOutput", &cfg.Log.DumpOutput, false)

	for name := range c.props {
		if !c.used[name] {
			panic(fmt.Errorf("config: unknown prop %s in httpServer %s", name, c.name))
		}
	}
	return cfg
}

func (c *configurator) absPath(path string) string {
	if filepath.IsAbs(path) || c.base == "" {
		return path
	}
	return filepath.Join(c.base, path)
}

func (c *configurator) configureBool(name string, prop *bool, defaultValue bool) {
	_configureProp(c, name, prop, (*config.Value).Bool, nil, defaultValue)
}
func (c *configurator) configureInt64(name string, prop *int64, check func(value int64) error, defaultValue int64) {
	_configureProp(c, name, prop, (*config.Value).Int64, check, defaultValue)
}
func (c *configurator) configureInt(name string, prop *int, check func(value int) error, defaultValue int) {
	_configureProp(c, name, prop, (*config.Value).Int, check, defaultValue)
}
func (c *configurator) configureString(name string, prop *string, check func(value string) error, defaultValue string) {
	_configureProp(c, name, prop, (*config.Value).String, check, defaultValue)
}
func (c *configurator) configureDuration(name string, prop *time.Duration, check func(value time.Duration) error, defaultValue time.Duration) {
	_configureProp(c, name, prop, (*config.Value).Duration, check, defaultValue)
}
func (c *configurator) configureStringList(name string, prop *[]string, check func(value []string) error, defaultValue []string) {
	_configureProp(c, name, prop, (*config.Value).StringList, check, defaultValue)
}
func (c *configurator) configureStringDict(name string, prop *map[string]string, check func(value map[string]string) error, defaultValue map[string]string) {
	_configureProp(c, name, prop, (*config.Value).StringDict, check, defaultValue)
}

func _configureProp[T any](c *configurator, name string, prop *T, conv func(*config.Value) (T, bool), check func(value T) error, defaultValue T) {
	v, ok := c.props[name]
	if !ok {
		*prop = defaultValue
		return
	}
	c.used[name] = true
	value, ok := conv(&v)
	if !ok {
		panic(fmt.Errorf("config: invalid %s in httpServer %s", name, c.name))
	}
	if check != nil {
		if err := check(value); err != nil {
			panic(fmt.Errorf("config: %s is error in httpServer %s: %w", name, c.name, err))
		}
	}
	*prop = value
}
