// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
genconfig writes deploy/.env.example and deploy/config.yaml.example from the
defaults and struct tags of config.ServerConfig.
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	"github.com/ligoj/plugin-req-squash/config"
	"github.com/ligoj/plugin-req-squash/core/audit"
)

const (
	envExample  = "deploy/.env.example"
	yamlExample = "deploy/config.yaml.example"

	generatedBy = "# Generated by go run ./cmd/genconfig.\n"

	// The subscriptions file holds Squash TM credentials.
	subscriptionsNote = "# Nodes and subscriptions served by the plugin, with their Squash TM\n" +
		"# credentials. Restrict its permissions."
)

// required variables are written uncommented in the .env example.
var required = map[string]bool{
	"SQUASHFE_HOST":               true,
	"SQUASHFE_PORT":               true,
	"SQUASHFE_SUBSCRIPTIONS_FILE": true,
}

// setting is one environment-backed field of a configuration section.
type setting struct {
	section string
	env     string
	value   reflect.Value
}

func main() {
	audit.SetDefaultLogger()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()
	cfg.Subscriptions.File = "./subscriptions.yaml"

	yamlText, err := yamlTemplate(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Encoding the YAML example failed")
	}

	for path, content := range map[string]string{
		envExample:  envTemplate(settings(cfg)),
		yamlExample: yamlText,
	} {
		if err := write(path, content); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Writing example failed")
		}

		log.Info().Str("path", path).Msg("Wrote example configuration")
	}
}

func write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(content), 0o644) //nolint:gosec // example files are public
}

// settings lists the fields carrying an env tag, section by section.
func settings(cfg *config.ServerConfig) []setting {
	var out []setting

	root := reflect.ValueOf(cfg).Elem()
	for i := range root.NumField() {
		section := root.Field(i)
		if section.Kind() != reflect.Struct {
			continue
		}

		for j := range section.NumField() {
			tag, ok := section.Type().Field(j).Tag.Lookup("env")
			if !ok {
				continue
			}

			name, _, _ := strings.Cut(tag, ",")
			out = append(out, setting{root.Type().Field(i).Name, name, section.Field(j)})
		}
	}

	return out
}

func envTemplate(all []setting) string {
	var sb strings.Builder

	sb.WriteString("# Squash TM plugin settings. Copy to .env and adjust.\n")
	sb.WriteString(generatedBy)

	last := ""

	for _, s := range all {
		if s.section != last {
			fmt.Fprintf(&sb, "\n## %s\n", s.section)
			last = s.section
		}

		prefix := "# "
		if required[s.env] {
			prefix = ""
		}

		fmt.Fprintf(&sb, "%s%s=%s\n", prefix, s.env, envValue(s.value))
	}

	sb.WriteString("\n## Proxy used for Squash TM and the public server\n# HTTPS_PROXY=\n# HTTP_PROXY=\n")

	return sb.String()
}

// envValue renders v the way the environment loader parses it back.
func envValue(v reflect.Value) string {
	if v.Kind() == reflect.Slice {
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}

		return strings.Join(parts, ",")
	}

	return fmt.Sprint(v.Interface())
}

// yamlTemplate encodes cfg and comments out every setting but the
// subscriptions file.
func yamlTemplate(cfg *config.ServerConfig) (string, error) {
	encoded, err := yaml.MarshalWithOptions(cfg, config.DurationEncoder(), yaml.Indent(2))
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	sb.WriteString("# Squash TM plugin settings. Copy to config.yaml and adjust.\n")
	sb.WriteString(generatedBy)

	for line := range strings.Lines(string(encoded)) {
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]

		switch {
		case strings.TrimSpace(body) == "":
		case indent == "":
			sb.WriteString("\n" + line)
		case strings.HasPrefix(body, "file:"):
			for note := range strings.Lines(subscriptionsNote) {
				sb.WriteString(indent + note)
			}

			sb.WriteString("\n" + line)
		default:
			sb.WriteString(indent + "# " + body)
		}
	}

	return sb.String(), nil
}
