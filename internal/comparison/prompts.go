/*-------------------------------------------------------------------------
 *
 * prompts.go
 *    Judge prompt templates for blind paired comparison
 *
 * The judge sees each side only as "Output A" and "Output B"; the models
 * that produced them are never named in any prompt.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/comparison/prompts.go
 *
 *-------------------------------------------------------------------------
 */

package comparison

import (
	"strings"
	"text/template"
)

/* DefaultCriteria is the rubric applied when the caller supplies none */
var DefaultCriteria = []string{"groundedness", "faithfulness", "completeness", "clarity", "accuracy"}

/* StageNames maps stage numbers to the pipeline step they evaluate */
var StageNames = map[int]string{
	1: "fact extraction",
	2: "insight synthesis",
	3: "summary",
}

const judgeSystem = `You are an impartial judge comparing two independently produced analyses of the same transcript.
You never know which system produced which side. Judge only the content shown.
Always respond with a single JSON object and nothing else.`

var stageTemplate = template.Must(template.New("stage").Parse(`<task>
Two systems each performed {{.StageName}} (stage {{.Stage}} of a three-stage analysis pipeline) over the same source transcript.
Decide which output is better against the criteria: {{.Criteria}}.
</task>

<transcript>
{{.Transcript}}
</transcript>

<output_a>
{{.OutputA}}
</output_a>

<output_b>
{{.OutputB}}
</output_b>

<instructions>
1. Score each side per criterion from 0.0 to 1.0.
2. Pick the winner: "A", "B", or "tie" when the sides are not meaningfully different.
3. Explain your reasoning, grounded in the transcript.
</instructions>

<output_format>
{"winner": "A"|"B"|"tie", "scores": {"A": {<criterion>: <0.0-1.0>, ...}, "B": {<criterion>: <0.0-1.0>, ...}}, "reasoning": "<why>"}
</output_format>`))

var overallTemplate = template.Must(template.New("overall").Parse(`<task>
You already judged the three stages of two analysis pipelines over the same transcript.
Now deliver the overall verdict across the criteria: {{.Criteria}}.
</task>

<stage_verdicts>
Stage 1 ({{.Stage1Name}}): winner {{.Stage1Winner}}. {{.Stage1Reasoning}}
Stage 2 ({{.Stage2Name}}): winner {{.Stage2Winner}}. {{.Stage2Reasoning}}
Stage 3 ({{.Stage3Name}}): winner {{.Stage3Winner}}. {{.Stage3Reasoning}}
</stage_verdicts>

<resource_usage>
Side A: {{.TokensA}} tokens, ${{printf "%.4f" .CostA}}
Side B: {{.TokensB}} tokens, ${{printf "%.4f" .CostB}}
</resource_usage>

<instructions>
1. Weigh the three stage verdicts; do not re-judge the stage outputs.
2. Factor in the recorded resource usage: prefer the side that delivers comparable quality at lower cost.
3. Pick the overall winner: "A", "B", or "tie".
</instructions>

<output_format>
{"winner": "A"|"B"|"tie", "scores": {"A": {<criterion>: <0.0-1.0>, ...}, "B": {<criterion>: <0.0-1.0>, ...}}, "reasoning": "<why, including the cost-benefit view>"}
</output_format>`))

type stagePromptData struct {
	Stage      int
	StageName  string
	Criteria   string
	Transcript string
	OutputA    string
	OutputB    string
}

type overallPromptData struct {
	Criteria        string
	Stage1Name      string
	Stage1Winner    string
	Stage1Reasoning string
	Stage2Name      string
	Stage2Winner    string
	Stage2Reasoning string
	Stage3Name      string
	Stage3Winner    string
	Stage3Reasoning string
	TokensA         int
	TokensB         int
	CostA           float64
	CostB           float64
}

func renderStagePrompt(stage int, criteria []string, transcript, outputA, outputB string) (string, error) {
	var sb strings.Builder
	err := stageTemplate.Execute(&sb, stagePromptData{
		Stage:      stage,
		StageName:  StageNames[stage],
		Criteria:   strings.Join(criteria, ", "),
		Transcript: transcript,
		OutputA:    outputA,
		OutputB:    outputB,
	})
	return sb.String(), err
}

func renderOverallPrompt(criteria []string, stages [3]*StageVerdict, tokensA, tokensB int, costA, costB float64) (string, error) {
	var sb strings.Builder
	err := overallTemplate.Execute(&sb, overallPromptData{
		Criteria:        strings.Join(criteria, ", "),
		Stage1Name:      StageNames[1],
		Stage1Winner:    stages[0].Winner,
		Stage1Reasoning: stages[0].Reasoning,
		Stage2Name:      StageNames[2],
		Stage2Winner:    stages[1].Winner,
		Stage2Reasoning: stages[1].Reasoning,
		Stage3Name:      StageNames[3],
		Stage3Winner:    stages[2].Winner,
		Stage3Reasoning: stages[2].Reasoning,
		TokensA:         tokensA,
		TokensB:         tokensB,
		CostA:           costA,
		CostB:           costB,
	})
	return sb.String(), err
}
