// Package reconcile converts a raw item→price mapping into a converged
// per-person allocation through an actor/critic loop: the actor proposes a
// full split, the critic verifies it against the receipt and the notes,
// and rejections feed back into the next proposal. The loop is bounded;
// nothing here touches the ledger.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/llm"
	"github.com/ykitano/splitbot/internal/money"
)

var (
	// ErrMalformedResponse means a role produced output that failed
	// schema validation even after one in-place retry.
	ErrMalformedResponse = errors.New("reconcile: role response malformed")
	// ErrReconciliationFailed means the loop ran out of attempts without
	// the critic accepting a proposal. No ledger writes happen on it.
	ErrReconciliationFailed = errors.New("reconcile: could not converge on a split")
)

const defaultMaxAttempts = 5

// UnresolvedPrefix marks allocation entries whose display name had no
// alias; the share is preserved under a placeholder id rather than
// dropped or failed.
const UnresolvedPrefix = "unresolved:"

const actorSystem = "You split restaurant bills. Respond with ONLY a JSON object of the form " +
	`{"allocation": {"<person>": <amount>, ...}, "reasoning": "<short explanation>"}. ` +
	"Amounts are numbers in dollars before tip. The allocation must cover every listed " +
	"participant and sum to the receipt total. No markdown, no extra text."

const criticSystem = "You check proposed bill splits. Respond with ONLY a JSON object of the form " +
	`{"is_correct": <bool>, "explanation": "<why>"}. A split is correct when its sum matches ` +
	"the receipt total within one cent, the distribution follows the splitting notes " +
	"(an even split when the notes say nothing else), and every required participant " +
	"appears. No markdown, no extra text."

// Request carries everything one reconciliation needs.
type Request struct {
	Items        map[string]decimal.Decimal
	Participants []string
	Notes        string
	Tip          string
	// AliasIndex maps display names to participant ids. May be empty;
	// unresolved names fall back to placeholder ids.
	AliasIndex map[string]string
}

type proposal struct {
	Allocation map[string]json.Number `json:"allocation"`
	Reasoning  string                 `json:"reasoning"`
}

type verdict struct {
	IsCorrect   *bool  `json:"is_correct"`
	Explanation string `json:"explanation"`
}

type Engine struct {
	completer   llm.Completer
	maxAttempts int
}

func NewEngine(completer llm.Completer) *Engine {
	return &Engine{completer: completer, maxAttempts: defaultMaxAttempts}
}

// Reconcile runs the propose/verify loop and returns the post-tip
// allocation keyed by participant id. The sum invariant is enforced
// locally on every iteration before the critic ever sees a proposal.
func (e *Engine) Reconcile(ctx context.Context, req Request) (map[string]decimal.Decimal, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("nothing to reconcile: no items")
	}
	if len(req.Participants) == 0 {
		return nil, fmt.Errorf("nothing to reconcile: no participants")
	}

	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		notes = "split evenly"
	}

	total := money.Sum(req.Items)
	tipFraction, err := ParseTipFraction(req.Tip, total)
	if err != nil {
		return nil, err
	}

	feedback := ""
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		prop, err := e.propose(ctx, req, notes, feedback)
		if err != nil {
			if errors.Is(err, ErrMalformedResponse) {
				feedback = "Your previous answer was not a valid JSON allocation. " +
					"Respond with exactly the required JSON shape."
				continue
			}
			return nil, err
		}

		preTip, err := decimalAllocation(prop.Allocation)
		if err != nil {
			feedback = fmt.Sprintf("Your previous allocation had an invalid amount: %v. "+
				"Produce a complete corrected allocation.", err)
			continue
		}

		// Cheap local check first: a proposal that fails arithmetic
		// never reaches the critic.
		if sum := money.Sum(preTip); !money.WithinCent(sum, total) {
			feedback = fmt.Sprintf("Your allocation sums to %s but the receipt total is %s. "+
				"Produce a complete corrected allocation.",
				money.FormatUSD(sum), money.FormatUSD(total))
			continue
		}

		v, err := e.verify(ctx, req, notes, prop)
		if err != nil {
			if errors.Is(err, ErrMalformedResponse) {
				// A broken critic response counts as a failed attempt
				// but does not poison the actor's next prompt.
				continue
			}
			return nil, err
		}

		if *v.IsCorrect {
			resolved := e.resolveNames(preTip, req)
			return ApplyTip(resolved, tipFraction), nil
		}
		feedback = v.Explanation
	}

	if feedback != "" {
		return nil, fmt.Errorf("%w after %d attempts: %s", ErrReconciliationFailed, e.maxAttempts, feedback)
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrReconciliationFailed, e.maxAttempts)
}

func (e *Engine) propose(ctx context.Context, req Request, notes, feedback string) (*proposal, error) {
	var b strings.Builder
	b.WriteString("Receipt items:\n")
	writeItems(&b, req.Items)
	fmt.Fprintf(&b, "Receipt total: %s\n", money.FormatUSD(money.Sum(req.Items)))
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(req.Participants, ", "))
	fmt.Fprintf(&b, "Splitting notes: %s\n", notes)
	if len(req.AliasIndex) > 0 {
		b.WriteString("Known names:\n")
		writeAliases(&b, req.AliasIndex)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "\nYour previous proposal was rejected: %s\n", feedback)
		b.WriteString("Produce a complete fresh allocation, not a patch.\n")
	}

	var prop proposal
	if err := e.completeJSON(ctx, actorSystem, b.String(), &prop); err != nil {
		return nil, err
	}
	if len(prop.Allocation) == 0 {
		return nil, fmt.Errorf("%w: empty allocation", ErrMalformedResponse)
	}
	return &prop, nil
}

func (e *Engine) verify(ctx context.Context, req Request, notes string, prop *proposal) (*verdict, error) {
	var b strings.Builder
	b.WriteString("Receipt items:\n")
	writeItems(&b, req.Items)
	fmt.Fprintf(&b, "Receipt total: %s\n", money.FormatUSD(money.Sum(req.Items)))
	fmt.Fprintf(&b, "Participants: %s\n", strings.Join(req.Participants, ", "))
	fmt.Fprintf(&b, "Splitting notes: %s\n", notes)
	b.WriteString("Proposed allocation (before tip):\n")
	names := make([]string, 0, len(prop.Allocation))
	for name := range prop.Allocation {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s\n", name, prop.Allocation[name].String())
	}
	fmt.Fprintf(&b, "Proposer's reasoning: %s\n", prop.Reasoning)

	var v verdict
	if err := e.completeJSON(ctx, criticSystem, b.String(), &v); err != nil {
		return nil, err
	}
	if v.IsCorrect == nil {
		return nil, fmt.Errorf("%w: missing is_correct", ErrMalformedResponse)
	}
	return &v, nil
}

// completeJSON runs one role call with strict schema validation at the
// boundary, retrying exactly once in place on a malformed response.
func (e *Engine) completeJSON(ctx context.Context, system, user string, out any) error {
	var lastErr error
	for try := 0; try < 2; try++ {
		response, err := e.completer.Complete(ctx, system, user)
		if err != nil {
			return fmt.Errorf("role call failed: %w", err)
		}

		raw, err := llm.ExtractJSON(response)
		if err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
}

// resolveNames maps allocation names through the alias index. A name that
// is already a participant id passes through; anything else becomes an
// unresolved placeholder so no share is ever silently dropped.
func (e *Engine) resolveNames(allocation map[string]decimal.Decimal, req Request) map[string]decimal.Decimal {
	ids := make(map[string]bool, len(req.Participants))
	for _, p := range req.Participants {
		ids[p] = true
	}

	resolved := make(map[string]decimal.Decimal, len(allocation))
	for name, share := range allocation {
		var id string
		switch {
		case req.AliasIndex[name] != "":
			id = req.AliasIndex[name]
		case ids[name]:
			id = name
		default:
			id = UnresolvedPrefix + name
		}
		resolved[id] = resolved[id].Add(share)
	}
	return resolved
}

func decimalAllocation(raw map[string]json.Number) (map[string]decimal.Decimal, error) {
	allocation := make(map[string]decimal.Decimal, len(raw))
	for name, num := range raw {
		share, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, fmt.Errorf("share for %q: %w", name, err)
		}
		if share.IsNegative() {
			return nil, fmt.Errorf("negative share for %q", name)
		}
		allocation[name] = share
	}
	return allocation, nil
}

func writeItems(b *strings.Builder, items map[string]decimal.Decimal) {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "  %s: %s\n", name, money.FormatUSD(items[name]))
	}
}

func writeAliases(b *strings.Builder, index map[string]string) {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "  %s = %s\n", name, index[name])
	}
}
