package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripflow-ai/tripflow/config"
	"github.com/tripflow-ai/tripflow/graph"
	"github.com/tripflow-ai/tripflow/oracle"
	"github.com/tripflow-ai/tripflow/travel"
)

const criticSystemPrompt = `You are a meticulous travel plan validator. Review the complete plan and identify issues that would make the trip problematic.

Validate across these categories: timing (overpacked days, unrealistic transit), logistics (impossible connections, zig-zag routing), budget (costs out of line with the budget level), feasibility (bookings, seasonality, physical demands), and balance (variety, free time).

Severity levels: low (minor suggestion), medium (should fix, trip viable), high (significant quality problem), critical (plan is broken).

Re-planning decision:
- Any critical issue: requires re-planning.
- 3 or more high issues: requires re-planning.
- Otherwise approve, listing remaining issues.

When requiring re-planning, give specific instructions: what must change, which cities or days, and concrete fixes.

Respond with JSON:
{
  "is_valid": true,
  "overall_score": 85,
  "issues": [
    {"category": "timing|budget|logistics|feasibility|balance", "description": "...",
     "severity": "low|medium|high|critical", "affected_days": [], "affected_cities": [], "suggested_fix": ""}
  ],
  "requires_replanning": false,
  "replan_focus": "",
  "replan_instructions": "",
  "strengths": ["..."],
  "final_recommendations": ["..."]
}`

type criticOutput struct {
	IsValid              bool                     `json:"is_valid"`
	OverallScore         float64                  `json:"overall_score"`
	Issues               []travel.ValidationIssue `json:"issues"`
	RequiresReplanning   bool                     `json:"requires_replanning"`
	ReplanFocus          string                   `json:"replan_focus"`
	ReplanInstructions   string                   `json:"replan_instructions"`
	Strengths            []string                 `json:"strengths"`
	FinalRecommendations []string                 `json:"final_recommendations"`
}

// Critic validates the assembled plan and decides whether to send it
// back to the planner. The replan loop is bounded: once the iteration
// count reaches the configured maximum, the critic approves with a
// recorded process issue instead of looping again.
type Critic struct {
	worker
}

// NewCritic creates the validation worker.
func NewCritic(caller oracle.Caller, settings *config.Settings) *Critic {
	return &Critic{worker{name: NodeCritic, caller: caller, settings: settings}}
}

func (c *Critic) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	var out criticOutput
	if err := c.ask(ctx, criticSystemPrompt, c.buildPrompt(state), &out); err != nil {
		return failNode(NodeCritic, err)
	}

	// The decision rule is enforced locally so a lenient model cannot
	// skip a replan the issues demand, nor force one they don't.
	out.RequiresReplanning = needsReplan(out.Issues)
	if out.RequiresReplanning {
		out.IsValid = false
	}

	maxIterations := c.settings.MaxReplanIterations
	if state.IterationCount >= maxIterations && out.RequiresReplanning {
		out.IsValid = true
		out.RequiresReplanning = false
		out.Issues = append(out.Issues, travel.ValidationIssue{
			Category:    "process",
			Description: fmt.Sprintf("Max re-planning iterations (%d) reached. Approving with known issues.", maxIterations),
			Severity:    travel.SeverityMedium,
		})
	}

	result := &travel.ValidationResult{
		IsValid:              out.IsValid,
		OverallScore:         out.OverallScore,
		Issues:               out.Issues,
		RequiresReplanning:   out.RequiresReplanning,
		ReplanFocus:          out.ReplanFocus,
		ReplanInstructions:   out.ReplanInstructions,
		Strengths:            out.Strengths,
		FinalRecommendations: out.FinalRecommendations,
	}

	delta := travel.TripState{ValidationResult: result}

	if out.RequiresReplanning {
		feedback := buildFeedback(out)
		delta.CriticFeedback = &feedback
		delta.IterationCount = state.IterationCount + 1
		delta.Messages = []travel.Message{
			note(NodeCritic, "Plan needs revision (score: %.0f/100, %d critical/high issues)",
				out.OverallScore, countSevere(out.Issues)),
		}
	} else {
		cleared := ""
		delta.CriticFeedback = &cleared
		if out.IsValid {
			delta.Messages = []travel.Message{
				note(NodeCritic, "Plan approved (score: %.0f/100)", out.OverallScore),
			}
		} else {
			delta.Messages = []travel.Message{
				note(NodeCritic, "Plan has issues but proceeding (score: %.0f/100)", out.OverallScore),
			}
		}
	}

	return graph.NodeResult[travel.TripState]{Delta: delta}
}

// needsReplan applies the decision rule: any critical issue, or three
// or more high issues.
func needsReplan(issues []travel.ValidationIssue) bool {
	high := 0
	for _, issue := range issues {
		switch issue.Severity {
		case travel.SeverityCritical:
			return true
		case travel.SeverityHigh:
			high++
		}
	}
	return high >= 3
}

func countSevere(issues []travel.ValidationIssue) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == travel.SeverityCritical || issue.Severity == travel.SeverityHigh {
			n++
		}
	}
	return n
}

// buildFeedback assembles the replan instructions handed back to the
// planner: focus, instructions, then every critical or high issue with
// its suggested fix.
func buildFeedback(out criticOutput) string {
	var parts []string
	if out.ReplanFocus != "" {
		parts = append(parts, "Focus area: "+out.ReplanFocus)
	}
	if out.ReplanInstructions != "" {
		parts = append(parts, "Instructions: "+out.ReplanInstructions)
	}

	var severe []travel.ValidationIssue
	for _, issue := range out.Issues {
		if issue.Severity == travel.SeverityCritical || issue.Severity == travel.SeverityHigh {
			severe = append(severe, issue)
		}
	}
	if len(severe) > 0 {
		parts = append(parts, "\nCritical issues to address:")
		for _, issue := range severe {
			parts = append(parts, fmt.Sprintf("- [%s] %s", strings.ToUpper(issue.Severity), issue.Description))
			if issue.SuggestedFix != "" {
				parts = append(parts, "  Suggestion: "+issue.SuggestedFix)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func (c *Critic) buildPrompt(state travel.TripState) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Validation pass %d of %d.\n\n", state.IterationCount+1, c.settings.MaxReplanIterations+1)

	if state.TripSummary != nil {
		fmt.Fprintf(&sb, "Trip: %s\nDays: %d, budget: %s, profile: %s, style: %s\n\n",
			state.TripSummary.TripUnderstanding, state.TripSummary.TotalDays,
			state.TripSummary.BudgetLevel, state.TripSummary.TravelerProfile, state.TripSummary.TravelStyle)
	}

	sb.WriteString("City allocations:\n")
	sb.WriteString(describeAllocations(state.CityAllocations))

	if state.RouteValidation != nil {
		fmt.Fprintf(&sb, "\nRoute: valid=%v, total %.1fh / %.0f km",
			state.RouteValidation.RouteIsValid,
			state.RouteValidation.TotalTravelTimeHours,
			state.RouteValidation.TotalDistanceKm)
		if len(state.RouteValidation.Warnings) > 0 {
			fmt.Fprintf(&sb, ", warnings: %s", strings.Join(state.RouteValidation.Warnings, "; "))
		}
		sb.WriteString("\n")
	}

	attractionsByCity := make(map[string]int)
	for _, a := range state.Attractions {
		attractionsByCity[a.City]++
	}
	sb.WriteString("\nAttractions researched per city:\n")
	for city, count := range attractionsByCity {
		fmt.Fprintf(&sb, "- %s: %d\n", city, count)
	}

	fmt.Fprintf(&sb, "\nFood recommendations: %d cities covered\n", len(state.FoodRecommendations))

	if state.BudgetBreakdown != nil {
		fmt.Fprintf(&sb, "\nBudget: transport $%.0f inter-city + $%.0f local, stay $%.0f, food $%.0f, activities $%.0f, misc $%.0f, total $%.0f %s\n",
			state.BudgetBreakdown.TransportInterCity, state.BudgetBreakdown.TransportLocal,
			state.BudgetBreakdown.Accommodation, state.BudgetBreakdown.Food,
			state.BudgetBreakdown.ActivitiesEntranceFees, state.BudgetBreakdown.Miscellaneous,
			state.BudgetBreakdown.Total, state.BudgetBreakdown.Currency)
	}

	fmt.Fprintf(&sb, "\nTransport options resolved for %d legs, %d scraped price quotes available.\n",
		len(state.TransportOptions), len(state.ScrapedTransportPrices))

	return sb.String()
}
