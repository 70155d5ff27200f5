package catalog

import (
	"github.com/guardstack/guardstack/pkg/rules"
)

// SelfCheckModule is the action module reference declared by the built-in
// fact-checking fragment. The integrating application registers a module
// under this name whose actions back the "self check facts" flow.
const SelfCheckModule = "actions/selfcheck"

const coveFlow = `define user ask question
  "What is the capital of Australia?"
  "Who wrote '1984'?"

define flow self check facts
  user ask question
  $bot_response = execute llm(query=$last_user_message)
  $fact_check_result = execute self_check_facts(user_message=$last_user_message, bot_message=$bot_response)
  bot $fact_check_result`

const jailbreakFlow = `define flow check for jailbreak
  user said something
  $jailbreak_check = execute self_check_input(type='jailbreak')
  if $jailbreak_check
    bot refuse to respond`

const inputModerationFlow = `define flow check input for harmful content
  user said something
  $moderation_check = execute self_check_input(type='moderation')
  if $moderation_check
    bot refuse to respond`

const outputModerationFlow = `define flow check output for unsafe content
  bot said something
  $unsafe_content_check = execute self_check_output(type='unsafe')
  if $unsafe_content_check
    bot refuse to respond`

const topicalPoliticsFlow = `define user express intent on politics
  "What are your thoughts on the recent election?"
  "Tell me about the new government policy."

define flow
  user express intent on politics
  bot refuse to respond`

// Builtin returns the stock guardrail library: fact-checking via
// chain-of-verification, jailbreak detection, input and output moderation,
// and a topical rail for politics.
func Builtin() *Static {
	return NewStatic(
		Fragment{
			ID:          "1",
			DisplayName: "Chain-of-Verification (Custom Fact-Checking)",
			RuleSettings: rules.Tree{
				"rails": rules.Branch(rules.Tree{
					"output": rules.Branch(rules.Tree{
						"flows": rules.Strings("self check facts"),
					}),
				}),
			},
			FlowScript:   coveFlow,
			ActionModule: SelfCheckModule,
		},
		Fragment{
			ID:          "2",
			DisplayName: "Jailbreak Detection",
			RuleSettings: rules.Tree{
				"rails": rules.Branch(rules.Tree{
					"input": rules.Branch(rules.Tree{
						"flows": rules.Strings("check for jailbreak"),
					}),
				}),
			},
			FlowScript: jailbreakFlow,
		},
		Fragment{
			ID:          "3",
			DisplayName: "Input Moderation (Harmful Content)",
			RuleSettings: rules.Tree{
				"rails": rules.Branch(rules.Tree{
					"input": rules.Branch(rules.Tree{
						"flows": rules.Strings("check input for harmful content"),
					}),
				}),
			},
			FlowScript: inputModerationFlow,
		},
		Fragment{
			ID:          "4",
			DisplayName: "Output Moderation (Unsafe Content)",
			RuleSettings: rules.Tree{
				"rails": rules.Branch(rules.Tree{
					"output": rules.Branch(rules.Tree{
						"flows": rules.Strings("check output for unsafe content"),
					}),
				}),
			},
			FlowScript: outputModerationFlow,
		},
		Fragment{
			ID:          "5",
			DisplayName: "Topical Rails (Politics)",
			RuleSettings: rules.Tree{
				"topical_rails": rules.Branch(rules.Tree{
					"topics":  rules.Strings("politics"),
					"enabled": rules.Scalar(true),
				}),
			},
			FlowScript: topicalPoliticsFlow,
		},
	)
}
