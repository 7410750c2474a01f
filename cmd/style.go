package main

import (
	"context"
	"crypto/cipher"
	"fmt"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/radio-rps/domain/rps"
)

const (
	manualEntry   = "Enter an ID"
	lookupTimeout = 3 * time.Second
	autoDelay     = 500 * time.Millisecond
)

// terminalInput asks the player through pterm prompts.
type terminalInput struct {
	opponent rps.DeviceID
	pinger   *Pinger
}

func (in *terminalInput) ChooseOpponent(ctx context.Context) (rps.DeviceID, error) {
	if in.opponent != "" {
		return in.opponent, nil
	}
	players, err := lookForPlayers(ctx, in.pinger)
	if err != nil {
		return "", err
	}
	options := make([]string, 0, len(players)+1)
	for _, id := range players {
		options = append(options, id.String())
	}
	options = append(options, manualEntry)
	selected, _ := pterm.DefaultInteractiveSelect.WithDefaultText("Select your opponent").WithOptions(options).Show()
	for selected == manualEntry {
		text, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter the ID of your opponent").Show()
		pterm.Println()
		if _, err := rps.ParseDeviceID(text); err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		selected = text
	}
	return rps.DeviceID(selected), nil
}

func (in *terminalInput) ChooseMove(ctx context.Context, round uint32) (rps.Move, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	options := make([]string, len(rps.Moves))
	for i, m := range rps.Moves {
		options[i] = m.String()
	}
	selected, _ := pterm.DefaultInteractiveSelect.
		WithDefaultText(fmt.Sprintf("Round %d: choose your move", round)).
		WithOptions(options).Show()
	return rps.ParseMove(selected)
}

// autoInput plays random moves against the first opponent it finds.
type autoInput struct {
	opponent rps.DeviceID
	pinger   *Pinger
	stream   cipher.Stream
}

func (in *autoInput) ChooseOpponent(ctx context.Context) (rps.DeviceID, error) {
	if in.opponent != "" {
		return in.opponent, nil
	}
	for {
		players, err := lookForPlayers(ctx, in.pinger)
		if err != nil {
			return "", err
		}
		if len(players) > 0 {
			pterm.Info.Printfln("Playing against %s", pterm.LightCyan(players[0]))
			return players[0], nil
		}
	}
}

func (in *autoInput) ChooseMove(ctx context.Context, round uint32) (rps.Move, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(autoDelay):
	}
	move := rps.RandomMove(in.stream)
	pterm.Info.Printfln("Round %d: playing %s", round, move)
	return move, nil
}

func lookForPlayers(ctx context.Context, pinger *Pinger) ([]rps.DeviceID, error) {
	spinner, _ := pterm.DefaultSpinner.Start("Looking for other players ...")
	select {
	case <-ctx.Done():
		spinner.Fail()
		return nil, ctx.Err()
	case <-time.After(lookupTimeout):
	}
	players := pinger.Players()
	if len(players) == 0 {
		spinner.Warning("Nobody found yet")
	} else {
		spinner.Success(fmt.Sprintf("Found %d players", len(players)))
	}
	return players, nil
}

// terminalDisplay renders the match with pterm.
type terminalDisplay struct {
	mu      sync.Mutex
	spinner *pterm.SpinnerPrinter
}

func (d *terminalDisplay) ShowWaiting(round uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	text := pterm.Sprintf("Round %d: waiting for your opponent ...", round)
	d.spinner, _ = pterm.DefaultSpinner.Start(text)
}

func (d *terminalDisplay) stopSpinner(success bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.spinner == nil {
		return
	}
	if success {
		d.spinner.Success()
	} else {
		d.spinner.Fail()
	}
	d.spinner = nil
}

func (d *terminalDisplay) ShowRoundOutcome(o rps.RoundOutcome) {
	d.stopSpinner(true)
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	text := pterm.Sprintfln("You: %s\nOpponent: %s\n\n%s", pterm.LightCyan(o.Own), pterm.LightMagenta(o.Opponent), face(o.Result()))
	pbox.WithTitle(pterm.LightYellow(fmt.Sprintf("|ROUND %d|", o.Round))).WithTitleTopCenter().Println(text)
}

func (d *terminalDisplay) ShowScore(round uint32, score rps.Score) {
	pterm.Info.Printfln("Score after round %d: %s - %s", round,
		pterm.LightGreen(score.Own), pterm.LightRed(score.Opponent))
}

func (d *terminalDisplay) ShowMatchResult(result rps.Result, score rps.Score) {
	d.stopSpinner(true)
	header := pterm.DefaultHeader.WithFullWidth()
	switch result {
	case rps.Win:
		header = header.WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen))
	case rps.Loss:
		header = header.WithBackgroundStyle(pterm.NewStyle(pterm.BgRed))
	default:
		header = header.WithBackgroundStyle(pterm.NewStyle(pterm.BgGray))
	}
	header.Println(fmt.Sprintf("%s  %d - %d  %s", result, score.Own, score.Opponent, face(result)))
}

// face is the icon a micro:bit would show for a result.
func face(r rps.Result) string {
	switch r {
	case rps.Win:
		return pterm.LightGreen("(^_^) you win")
	case rps.Loss:
		return pterm.LightRed("(T_T) you lose")
	default:
		return pterm.LightYellow("(-_-) draw")
	}
}
