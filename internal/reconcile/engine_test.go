package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeCompleter scripts the actor and critic roles, telling them apart by
// their system prompts, and records the prompts each role received.
type fakeCompleter struct {
	actor         []string
	critic        []string
	actorPrompts  []string
	criticPrompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	if strings.Contains(system, "split restaurant bills") {
		f.actorPrompts = append(f.actorPrompts, user)
		if len(f.actor) == 0 {
			return "", fmt.Errorf("fake actor exhausted")
		}
		resp := f.actor[0]
		f.actor = f.actor[1:]
		return resp, nil
	}
	f.criticPrompts = append(f.criticPrompts, user)
	if len(f.critic) == 0 {
		return "", fmt.Errorf("fake critic exhausted")
	}
	resp := f.critic[0]
	f.critic = f.critic[1:]
	return resp, nil
}

func burgerFriesRequest(tip string) Request {
	return Request{
		Items: map[string]decimal.Decimal{
			"Burger": decimal.RequireFromString("10.00"),
			"Fries":  decimal.RequireFromString("3.00"),
		},
		Participants: []string{"A", "B"},
		Notes:        "split evenly",
		Tip:          tip,
		AliasIndex:   map[string]string{"alice": "A", "bob": "B"},
	}
}

const evenProposal = `{"allocation": {"alice": 6.50, "bob": 6.50}, "reasoning": "split evenly"}`
const approve = `{"is_correct": true, "explanation": "sum matches and the split is even"}`

func TestReconcileEvenSplitWithPercentTip(t *testing.T) {
	fake := &fakeCompleter{actor: []string{evenProposal}, critic: []string{approve}}
	engine := NewEngine(fake)

	allocation, err := engine.Reconcile(context.Background(), burgerFriesRequest("15%"))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	want := decimal.RequireFromString("7.475")
	for _, id := range []string{"A", "B"} {
		if !allocation[id].Equal(want) {
			t.Errorf("allocation[%s] = %s, want %s", id, allocation[id], want)
		}
	}
	if len(fake.actorPrompts) != 1 || len(fake.criticPrompts) != 1 {
		t.Errorf("call counts: actor %d, critic %d; want 1 and 1",
			len(fake.actorPrompts), len(fake.criticPrompts))
	}
}

func TestReconcileEmptyTipIsIdentity(t *testing.T) {
	fake := &fakeCompleter{actor: []string{evenProposal}, critic: []string{approve}}
	allocation, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest(""))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !allocation["A"].Equal(decimal.RequireFromString("6.50")) {
		t.Errorf("empty tip changed the share: %s", allocation["A"])
	}
}

func TestReconcilePercentAndAbsoluteTipAgree(t *testing.T) {
	run := func(tip string) map[string]decimal.Decimal {
		fake := &fakeCompleter{actor: []string{evenProposal}, critic: []string{approve}}
		allocation, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest(tip))
		if err != nil {
			t.Fatalf("Reconcile(tip=%q) failed: %v", tip, err)
		}
		return allocation
	}

	pct := run("10%")
	abs := run("1.30") // 0.10 * 13.00

	tolerance := decimal.RequireFromString("0.01")
	for _, id := range []string{"A", "B"} {
		if pct[id].Sub(abs[id]).Abs().Cmp(tolerance) > 0 {
			t.Errorf("tip forms disagree for %s: %s vs %s", id, pct[id], abs[id])
		}
	}
}

func TestReconcileCriticRejectionFeedsBack(t *testing.T) {
	lopsided := `{"allocation": {"alice": 13.00, "bob": 0}, "reasoning": "alice pays"}`
	reject := `{"is_correct": false, "explanation": "the notes say split evenly but alice carries everything"}`

	fake := &fakeCompleter{
		actor:  []string{lopsided, evenProposal},
		critic: []string{reject, approve},
	}
	allocation, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest(""))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !allocation["A"].Equal(decimal.RequireFromString("6.50")) {
		t.Errorf("allocation[A] = %s, want 6.50", allocation["A"])
	}

	if len(fake.actorPrompts) != 2 {
		t.Fatalf("actor called %d times, want 2", len(fake.actorPrompts))
	}
	second := fake.actorPrompts[1]
	if !strings.Contains(second, "alice carries everything") {
		t.Errorf("critic explanation not carried into the retry prompt:\n%s", second)
	}
	if !strings.Contains(second, "complete fresh allocation") {
		t.Errorf("retry prompt does not demand a full allocation:\n%s", second)
	}
}

func TestReconcileLocalSumCheckSkipsCritic(t *testing.T) {
	short := `{"allocation": {"alice": 5.00, "bob": 5.00}, "reasoning": "even"}`

	fake := &fakeCompleter{
		actor:  []string{short, evenProposal},
		critic: []string{approve},
	}
	_, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest(""))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	// The short proposal must have been rejected without a critic call.
	if len(fake.criticPrompts) != 1 {
		t.Errorf("critic called %d times, want 1", len(fake.criticPrompts))
	}
	if !strings.Contains(fake.actorPrompts[1], "$10.00") || !strings.Contains(fake.actorPrompts[1], "$13.00") {
		t.Errorf("sum mismatch feedback missing amounts:\n%s", fake.actorPrompts[1])
	}
}

func TestReconcileSumToleranceOneCent(t *testing.T) {
	offByACent := `{"allocation": {"alice": 6.50, "bob": 6.51}, "reasoning": "even-ish"}`
	fake := &fakeCompleter{actor: []string{offByACent}, critic: []string{approve}}

	if _, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest("")); err != nil {
		t.Errorf("one-cent discrepancy must be tolerated: %v", err)
	}
}

func TestReconcileMalformedActorRetriedInPlace(t *testing.T) {
	fake := &fakeCompleter{
		actor:  []string{"I refuse to answer in JSON.", evenProposal},
		critic: []string{approve},
	}
	if _, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest("")); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	// The garbage response is retried once inside the same attempt.
	if len(fake.actorPrompts) != 2 {
		t.Errorf("actor called %d times, want 2", len(fake.actorPrompts))
	}
}

func TestReconcileBoundedAttempts(t *testing.T) {
	reject := `{"is_correct": false, "explanation": "still wrong"}`
	fake := &fakeCompleter{
		actor:  []string{evenProposal, evenProposal, evenProposal, evenProposal, evenProposal},
		critic: []string{reject, reject, reject, reject, reject},
	}

	_, err := NewEngine(fake).Reconcile(context.Background(), burgerFriesRequest(""))
	if !errors.Is(err, ErrReconciliationFailed) {
		t.Fatalf("Reconcile error = %v, want ErrReconciliationFailed", err)
	}
	if !strings.Contains(err.Error(), "still wrong") {
		t.Errorf("failure does not carry the last explanation: %v", err)
	}
	if len(fake.actorPrompts) != 5 {
		t.Errorf("actor called %d times, want the 5-attempt bound", len(fake.actorPrompts))
	}
}

func TestReconcileUnresolvedNameGetsPlaceholder(t *testing.T) {
	req := burgerFriesRequest("")
	req.AliasIndex = map[string]string{"alice": "A"}

	proposal := `{"allocation": {"alice": 6.50, "carol": 6.50}, "reasoning": "even"}`
	fake := &fakeCompleter{actor: []string{proposal}, critic: []string{approve}}

	allocation, err := NewEngine(fake).Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	share, ok := allocation[UnresolvedPrefix+"carol"]
	if !ok {
		t.Fatalf("unresolved name dropped; allocation = %v", allocation)
	}
	if !share.Equal(decimal.RequireFromString("6.50")) {
		t.Errorf("placeholder share = %s, want 6.50", share)
	}
}

func TestReconcileParticipantIDPassesThrough(t *testing.T) {
	req := burgerFriesRequest("")
	req.AliasIndex = nil

	proposal := `{"allocation": {"A": 6.50, "B": 6.50}, "reasoning": "even"}`
	fake := &fakeCompleter{actor: []string{proposal}, critic: []string{approve}}

	allocation, err := NewEngine(fake).Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if _, ok := allocation["A"]; !ok {
		t.Errorf("participant id not passed through: %v", allocation)
	}
}

func TestReconcileRejectsBadInputsUpFront(t *testing.T) {
	fake := &fakeCompleter{}
	engine := NewEngine(fake)

	req := burgerFriesRequest("")
	req.Items = nil
	if _, err := engine.Reconcile(context.Background(), req); err == nil {
		t.Errorf("empty items must fail")
	}

	req = burgerFriesRequest("")
	req.Participants = nil
	if _, err := engine.Reconcile(context.Background(), req); err == nil {
		t.Errorf("empty participants must fail")
	}

	req = burgerFriesRequest("lots")
	if _, err := engine.Reconcile(context.Background(), req); err == nil {
		t.Errorf("unparseable tip must fail before any role call")
	}
	if len(fake.actorPrompts) != 0 {
		t.Errorf("bad inputs reached the actor")
	}
}
