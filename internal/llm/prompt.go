package llm

import (
	"fmt"
	"strings"
)

const ExtractBridgeParameters = "extract_bridge_parameters"

const inputMarker = `User Requirements: "`

var templates = map[string]string{
	ExtractBridgeParameters: `Analyze the following user requirements for a bridge design and extract key parameters.
User Requirements: "{user_input}"

Return the parameters in a JSON format with the following keys (if found, otherwise use null):
- bridge_type_preference (e.g., "beam", "arch", "suspension", "cable-stayed")
- span_length_description (e.g., "long river crossing", "short pedestrian bridge", "approx 100m")
- estimated_span_meters (number)
- load_requirements (e.g., "heavy vehicles", "pedestrian only", "railway")
- site_terrain (e.g., "flat", "mountainous", "urban", "over water")
- specific_materials (e.g., "steel", "concrete")
- budget_constraints (e.g., "low budget", "no limit")
- aesthetic_preferences (e.g., "modern look", "classic design")
- environmental_factors (e.g., "high winds", "earthquake zone intensity 8", "corrosive environment")
- seismic_description (e.g., "8度", "Zone IV")
- road_lanes_description (e.g., "双向四车道", "two lanes with pedestrian walkway")

Example of desired JSON output:
{
  "bridge_type_preference": "cable-stayed bridge with composite deck",
  "span_length_description": "main span approx 500m, side spans 2x200m",
  "estimated_span_meters": 500,
  "load_requirements": "heavy vehicles (highway class A) and future light rail",
  "site_terrain": "over water, coastal area with soft soil",
  "specific_materials": "corrosion-resistant steel for cables and superstructure, high-strength concrete for towers",
  "budget_constraints": "medium to high, focus on durability",
  "aesthetic_preferences": "iconic and modern, slender profile",
  "environmental_factors": "high winds (typhoon prone), saltwater environment, seismic zone intensity 7",
  "seismic_description": "intensity 7",
  "road_lanes_description": "dual 3-lane carriageways with emergency shoulders"
}

JSON Output:
`,
}

// Prompt renders a named template for the given user input. Double quotes in
// the input are replaced so the requirement stays one quoted string.
func Prompt(name, input string) (string, error) {
	t, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("prompt template %q not found", name)
	}
	input = strings.ReplaceAll(strings.TrimSpace(input), `"`, "'")
	return strings.Replace(t, "{user_input}", input, 1), nil
}

// userInput recovers the requirement text embedded by Prompt.
func userInput(prompt string) string {
	i := strings.Index(prompt, inputMarker)
	if i < 0 {
		return strings.TrimSpace(prompt)
	}
	rest := prompt[i+len(inputMarker):]
	if j := strings.Index(rest, `"`); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
