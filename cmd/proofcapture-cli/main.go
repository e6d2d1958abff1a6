//
// Copyright 2025 Best Day Labs.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/BestDayLabs/ProofCapture-CLI/cmd/proofcapture-cli/cli"
	"github.com/BestDayLabs/ProofCapture-CLI/pkg/tracing"
)

// ExitCoder lets errors carry their own process exit code. Verification
// failures implement it so each failure class maps to a distinct code.
type ExitCoder interface {
	error
	ExitCode() int
}

func main() {
	log.SetFlags(0)
	os.Exit(run())
}

// run keeps exit-code handling out of main so deferred cleanup still runs
// before the process exits.
func run() int {
	if err := tracing.InitFromEnv(); err != nil {
		log.Printf("warning: tracing disabled: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(ctx)
	}()

	if err := cli.New().Execute(); err != nil {
		log.Printf("error during command execution: %v", err)

		var ec ExitCoder
		if errors.As(err, &ec) {
			return ec.ExitCode()
		}
		return 1
	}
	return 0
}
