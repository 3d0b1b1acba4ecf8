package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chexbridge/manual-chex-bridge/bridge"
	"github.com/chexbridge/manual-chex-bridge/client"
	"github.com/chexbridge/manual-chex-bridge/db"
	"github.com/chexbridge/manual-chex-bridge/policy"
	"golang.org/x/term"
)

// terminalPrompter asks for login details on the terminal.
type terminalPrompter struct {
	in  *os.File
	out io.Writer

	reader *bufio.Reader
}

func newTerminalPrompter(in *os.File, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

// Account reads "account" or "account@permission".
func (p *terminalPrompter) Account() (string, string, error) {
	fmt.Fprint(p.out, "EOS account: ")

	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", "", err
	}

	actor, permission, _ := strings.Cut(strings.TrimSpace(line), "@")

	return actor, permission, nil
}

// Password reads the wallet password without echo.
func (p *terminalPrompter) Password(wallet string) (string, error) {
	fmt.Fprintf(p.out, "Password for wallet %s: ", wallet)

	if !term.IsTerminal(int(p.in.Fd())) {
		line, err := p.reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	pw, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}

	return string(pw), nil
}

func printNotice(n bridge.Notice) {
	switch n.Kind {
	case 0:
		fmt.Fprintln(os.Stderr, n.Message)
	default:
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Kind, n.Message)
	}
}

func printState(c *client.Client) {
	state := c.State()
	cfg := c.Config()

	if state.SourceBound {
		fmt.Printf("EOS account:      %s@%s\n", state.Actor,
			state.Permission)
		switch {
		case state.BalanceErr != nil:
			fmt.Printf("Balance:          unavailable (%v)\n",
				state.BalanceErr)
		default:
			fmt.Printf("Balance:          %s\n", state.Balance)
		}
	} else {
		fmt.Println("EOS account:      not logged in")
	}

	switch {
	case !state.DestinationBound:
		fmt.Println("Ethereum address: not connected")
	case !state.DestinationValid:
		fmt.Printf("Ethereum address: %s (invalid)\n", state.Destination)
	default:
		fmt.Printf("Ethereum address: %s\n", state.Destination)
	}

	cutoff := cfg.CutoffTime()
	window := "open"
	if !c.WindowOpen() {
		window = "closed"
	}
	fmt.Printf("Bridge window:    %s until %s\n", window,
		cutoff.Format(time.RFC3339))
	fmt.Printf("Minimum transfer: %d CHEX\n", policy.MinimumTransfer)
	fmt.Printf("Custodian:        %s\n", cfg.Custodian)
}

func printRecord(rec *db.TransferRecord) {
	status := rec.TxID
	if rec.Status == db.StatusFailed {
		status = "failed: " + rec.Error
	}

	fmt.Printf("%s  %s  %s -> %s  memo %s  %s\n",
		rec.RecordedAt.Format(time.RFC3339), rec.Action.Quantity,
		rec.Action.From, rec.Action.To, rec.Action.Memo, status)
}
