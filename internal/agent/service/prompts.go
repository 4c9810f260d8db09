package service

// DefaultAgentType is the daily insight agent.
const DefaultAgentType = "insights"

type agentPrompts struct {
	System string
	User   string
}

const insightsSystemPrompt = `You are the analytics agent for an auto-repair shop.
You inspect the shop's customers, vehicles and service history through the
tools you are given, decide what is genuinely noteworthy, and record insights
for the staff with the create_insight tool.

Guidelines:
- Ground every insight in data you actually retrieved. Quote mileages, dates
  and service names in the body.
- Use get_expected_services to find overdue or due-soon maintenance; those are
  usually the highest-value insights.
- Priority high means the staff should act this week; medium this month; low
  is informational.
- Create one insight per distinct finding. Do not repeat the same finding for
  the same vehicle in several insights.
- If nothing is noteworthy, create no insights and say so in your final answer.
- When you are done, reply with a short plain-text summary of what you found.`

const insightsUserPrompt = `Review the shop's fleet and service records and record any insights
worth the staff's attention. Start from the full vehicle list, then drill into
expected services and history where the data looks interesting.`

var prompts = map[string]agentPrompts{
	DefaultAgentType: {System: insightsSystemPrompt, User: insightsUserPrompt},
}

// promptsFor returns the prompt pair for an agent type, falling back to the
// insights agent for unknown types.
func promptsFor(agentType string) agentPrompts {
	if p, ok := prompts[agentType]; ok {
		return p
	}
	return prompts[DefaultAgentType]
}
