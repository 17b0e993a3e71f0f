package amtrak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	_ "embed"
)

//go:embed agent.js
var agentSource string

const agentGlobal = "__fareTracker"

// Capability names registered by the in-page agent
const (
	capProbe        = "probe"
	capSetField     = "set-field"
	capOptions      = "options"
	capConfirmField = "confirm-field"
	capConfirmDate  = "confirm-date"
	capSubmit       = "submit"
	capResults      = "results"
	capPageContent  = "page-content"
	capNextPage     = "next-page"
)

// true once every capability this version relies on is registered
var presenceExpression = fmt.Sprintf(
	`!!(window.%[1]s && window.%[1]s.capabilities && window.%[1]s.capabilities[%[2]q] && window.%[1]s.capabilities[%[3]q])`,
	agentGlobal, capNextPage, capResults,
)

// Caller sends a request to the in-page agent and decodes its reply into out
type Caller interface {
	Call(ctx context.Context, capability string, args interface{}, out interface{}) error
}

func callExpression(capability string, args interface{}) (string, error) {
	name, err := json.Marshal(capability)
	if err != nil {
		return "", err
	}
	if args == nil {
		args = struct{}{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode %s args: %w", capability, err)
	}
	return fmt.Sprintf("window.%s.call(%s, %s)", agentGlobal, name, payload), nil
}

type probeArgs struct {
	Origin      []string `json:"origin"`
	Destination []string `json:"destination"`
	Date        []string `json:"date"`
	Labels      []string `json:"labels"`
}

type probeResult struct {
	Origin      bool `json:"origin"`
	Destination bool `json:"destination"`
	Date        bool `json:"date"`
	Submit      bool `json:"submit"`
}

type fieldArgs struct {
	Selectors []string `json:"selectors"`
	Value     string   `json:"value,omitempty"`
}

type fieldResult struct {
	Found    bool `json:"found"`
	Options  int  `json:"options"`
	Selected bool `json:"selected"`
}

type dateResult struct {
	Overlay   bool   `json:"overlay"`
	Confirmed bool   `json:"confirmed"`
	Label     string `json:"label"`
}

type submitArgs struct {
	Labels []string `json:"labels"`
}

type submitResult struct {
	Found    bool `json:"found"`
	Forced   bool `json:"forced"`
	Disabled bool `json:"disabled"`
}

type resultsProbe struct {
	Prices int `json:"prices"`
}

type contentResult struct {
	HTML string `json:"html"`
}

type nextResult struct {
	Found bool   `json:"found"`
	Label string `json:"label"`
}

// agentPager pages through results via the agent
type agentPager struct {
	caller Caller
}

// NewAgentPager adapts an agent Caller to the engine's Pager
func NewAgentPager(caller Caller) Pager {
	return &agentPager{caller: caller}
}

func (p *agentPager) Content(ctx context.Context) (string, error) {
	var res contentResult
	if err := p.caller.Call(ctx, capPageContent, nil, &res); err != nil {
		return "", err
	}
	return res.HTML, nil
}

func (p *agentPager) Next(ctx context.Context) (bool, error) {
	var res nextResult
	err := p.caller.Call(ctx, capNextPage, nil, &res)
	if errors.Is(err, ErrChannelClosed) {
		// the click navigated to the next page before replying
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return res.Found, nil
}
