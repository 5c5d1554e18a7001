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

const clarifySystemPrompt = `You are a travel planning assistant that decides whether a trip request has enough detail to plan from.

Read the request and extract what is already there: duration, destination country or cities, budget level, travel style, and any concrete travel dates.

Then decide what is still missing. Ask about, at most:
- travel_dates: when the trip happens (needed for real price lookups)
- origin_city: where the traveler starts from
- specific_destinations: must-visit cities, if the request names only a country or region
- visited_places: places already seen, to avoid repeats
- dietary: dietary restrictions or preferences
- travel_pace: fast, moderate, or relaxed

Only ask questions whose answers you could not infer. If the request already covers the essentials, set needs_clarification to false and ask nothing.

Respond with JSON:
{
  "needs_clarification": true,
  "questions": [
    {"question_id": "travel_dates", "question_text": "...", "question_type": "travel_dates", "required": true, "options": [], "allow_multiple": false}
  ],
  "inferred": {
    "duration_days": 5, "destination_country": "...", "destination_cities": [],
    "budget_level": "", "travel_style": "",
    "travel_start_date": "", "travel_end_date": "", "has_specific_dates": false
  }
}`

type clarifyOutput struct {
	NeedsClarification bool                           `json:"needs_clarification"`
	Questions          []travel.ClarificationQuestion `json:"questions"`
	Inferred           travel.InferredTripInfo        `json:"inferred"`
}

// Clarifier inspects the user request and either asks for missing
// details or waves the request through to planning.
type Clarifier struct {
	worker
}

// NewClarifier creates the clarification worker.
func NewClarifier(caller oracle.Caller, settings *config.Settings) *Clarifier {
	return &Clarifier{worker{name: NodeClarification, caller: caller, settings: settings}}
}

func (c *Clarifier) Run(ctx context.Context, state travel.TripState) graph.NodeResult[travel.TripState] {
	var out clarifyOutput
	prompt := fmt.Sprintf("Trip request:\n%s", state.UserRequest)
	if err := c.ask(ctx, clarifySystemPrompt, prompt, &out); err != nil {
		return failNode(NodeClarification, err)
	}

	delta := travel.TripState{
		ClarificationNeeded:    &out.NeedsClarification,
		ClarificationQuestions: boundQuestions(out.Questions),
	}
	applyInferred(&delta, out.Inferred)

	if out.NeedsClarification {
		delta.Messages = []travel.Message{
			note(NodeClarification, "Need %d answers before planning", len(delta.ClarificationQuestions)),
		}
	} else {
		delta.Messages = []travel.Message{
			note(NodeClarification, "Request is complete, proceeding to planning"),
		}
	}
	return graph.NodeResult[travel.TripState]{Delta: delta}
}

// boundQuestions orders travel-date questions first (prices depend on
// dates, so they lead the form) and caps the list at six.
func boundQuestions(questions []travel.ClarificationQuestion) []travel.ClarificationQuestion {
	if len(questions) == 0 {
		return questions
	}
	ordered := make([]travel.ClarificationQuestion, 0, len(questions))
	for _, q := range questions {
		if q.QuestionType == "travel_dates" {
			ordered = append(ordered, q)
		}
	}
	for _, q := range questions {
		if q.QuestionType != "travel_dates" {
			ordered = append(ordered, q)
		}
	}
	if len(ordered) > 6 {
		ordered = ordered[:6]
	}
	return ordered
}

// applyInferred copies what the clarifier read directly from the
// request into the state, so later workers see it even when no
// questions get asked.
func applyInferred(delta *travel.TripState, info travel.InferredTripInfo) {
	if len(info.DestinationCities) > 0 {
		delta.SpecificDestinations = info.DestinationCities
	}
	if info.HasSpecificDates && info.TravelStartDate != "" {
		delta.TravelStartDate = info.TravelStartDate
		delta.TravelEndDate = info.TravelEndDate
		delta.TravelDateFlexibility = "specific"
	}
}

// ClarificationPrompt renders the pending questions for a CLI prompt.
func ClarificationPrompt(questions []travel.ClarificationQuestion) string {
	var sb strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s", i+1, q.QuestionText)
		if len(q.Options) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(q.Options, " / "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
