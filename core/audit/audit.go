// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package audit records the HTTP traffic of the plugin: the console requests it
answers and the calls it makes to Squash TM instances and to the public server
listing Squash TM releases.

Each exchange is a [Span]. Spans are logged when they end, tagged with the
node and subscription they were made for, and reported as Server-Timing
metrics when the console request asked for them.
*/
package audit

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TrafficDestination says which side of the plugin an exchange talks to.
type TrafficDestination string

const (
	// ToConsole is a response served to the host console.
	ToConsole TrafficDestination = "console"
	// ToSquash is a request to a subscribed Squash TM instance.
	ToSquash TrafficDestination = "squash"
	// ToPublicServer is a request to the server publishing Squash TM releases.
	ToPublicServer TrafficDestination = "public"
)

// Field names of traffic log events.
const (
	sysTraffic       = "traffic"
	fieldDestination = "destination"
	fieldStatus      = "status"
	fieldMethod      = "method"
	fieldHost        = "host"
	fieldPath        = "path"
)

// SetDefaultLogger installs a console logger on stderr, used until the
// configuration picks the real outputs.
func SetDefaultLogger() {
	log.Logger = log.Output(ConsoleWriter(os.Stderr))
}

// ConsoleWriter returns a human-readable zerolog writer on f, colored when f
// is a terminal. Traffic events are folded into a single line.
func ConsoleWriter(f *os.File) io.Writer {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())

	return zerolog.ConsoleWriter{
		Out:           f,
		NoColor:       !tty,
		TimeFormat:    time.DateTime,
		FormatPrepare: foldTraffic,
	}
}

// foldTraffic rewrites a traffic event as
// "squash 200 GET squash.example.com/squash/administration", leaving the
// target and timing fields as they are.
func foldTraffic(event map[string]any) error {
	if event["sys"] != sysTraffic {
		return nil
	}

	event[zerolog.MessageFieldName] = fmt.Sprintf("%v %v %v %v%v",
		event[fieldDestination], event[fieldStatus], event[fieldMethod], event[fieldHost], event[fieldPath])

	for _, k := range []string{"sys", fieldDestination, fieldStatus, fieldMethod, fieldHost, fieldPath} {
		delete(event, k)
	}

	return nil
}
