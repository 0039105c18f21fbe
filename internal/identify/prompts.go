package identify

import (
	"fmt"
	"strings"

	"github.com/numisight/numisight/internal/llm"
)

const systemPrompt = `You are an expert numismatist. You identify coins from photographs of a single coin.
Respond with a JSON object of the form {"predicted_class": "<class>", "probability": <number between 0 and 1>}.
The probability is your confidence that the class is correct. Respond with JSON only.`

func buildMessages(classes []string, img llm.Image) []llm.Message {
	var user strings.Builder
	if len(classes) > 0 {
		user.WriteString("Classify the coin in this image as exactly one of the following classes:\n")
		for _, c := range classes {
			fmt.Fprintf(&user, "- %s\n", c)
		}
		user.WriteString("Use the class name exactly as written.")
	} else {
		user.WriteString("Name the coin in this image by its issuing dynasty and ruler, for example \"Kushan Kanishka\".")
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user.String(), Images: []llm.Image{img}},
	}
}
