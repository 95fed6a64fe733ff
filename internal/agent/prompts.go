package agent

import (
	"fmt"
	"strings"

	"github.com/charitybridge/nico/internal/children"
	"github.com/charitybridge/nico/internal/faqs"
)

// Greeting is sent to every visitor when their chat session opens.
const Greeting = `Hi, I'm Nico, your assistant for this charity!
I'm here to support you by answering questions about our mission, activities, and donation methods.
If you're interested in sponsoring a child, I can help you find the perfect match.

For example, try asking me:
- What is your mission?
- Are there any young girls I can sponsor?

Thank you for visiting this charity's website—your support means the world to us. Feel free to ask me anything!
`

// routingPrompt steers the initial completion: answer directly, or pick
// one of the two declared tools.
const routingPrompt = `You are an assistant for an NPO website. Determine if the user's query requires using a specific function to provide relevant information.
- If the query is general or conversational (e.g., greetings), respond directly without using any function.
- If the query is informational and relevant to the NPO's services (e.g., donation methods, activities), use the "search_relevant_faqs" function to retrieve information from the documents.
- If the query is related to finding a specific child to support based on attributes (e.g., "I want to sponsor a child from Kenya" or "Who loves football?"), use the "fetch_children" function to find matching children.
`

// faqGroundingPrompt prefixes the formatted FAQ entries for the second
// completion. The model must answer strictly from the supplied documents.
const faqGroundingPrompt = `You are an assistant for an NPO website, providing answers strictly based on the information provided.
Answer ONLY using the provided information.
If the information does not contain enough details to answer the question, respond with "I'm sorry, but I don't have enough information on that topic."
DO NOT add any information or make inferences beyond what is in the provided information.
Avoid generating any additional details that are not explicitly stated in the provided information.
Here is the list of relevant documents:
`

const childFoundPrompt = `You are an assistant for an NPO website, responsible for introducing children to potential sponsors based on the provided information.
Using the details of the %d child(ren) retrieved from the database, create a warm and engaging introduction that highlights each child's name, age, country, and any specific preferences or hobbies they have.
%s
Your response should:
- Be warm, friendly, and engaging to make the sponsor feel emotionally connected to the child.
- Use the information provided about the child as a basis, but feel free to expand with generic encouraging phrases or a natural flow to enhance the sponsor's connection.
- Avoid adding any additional details or making inferences beyond what is provided.
- Conclude your response with a sentence providing a clickable HTML link to learn more about each child and how to support them.
- Do not use Markdown formatting (e.g., brackets or parentheses) or plain text for the link. Instead, use an HTML <a> tag with the target="_blank" attribute. For example: 'To learn more about [child's name] and how you can support them, please visit this link: <a href="[child's link]" target="_blank">[child's link]</a>'.
- Do not include any follow-up questions such as "Would you like to learn more about sponsoring [child's name]?" or similar phrases.

Here is the information about the child(ren):

`

// childFallbackPrompt frames the randomly selected child honestly: the
// model must acknowledge that no child matched the stated preferences
// and never imply relevance to them.
const childFallbackPrompt = `You are an assistant for an NPO website, responsible for introducing children to potential sponsors based on the provided information.

Unfortunately, we couldn't find a child matching your specific preferences at this time. However, we have identified another child who might capture your interest and support.

Using the details of this alternative child retrieved from the database, create a warm and engaging introduction that highlights the child's name, age, country, and any specific preferences or hobbies they have.

Your response should:
- Acknowledge that the initially requested child was not found, and that this is an alternative suggestion.
- Be friendly and encouraging to help the sponsor feel connected to this alternative child.
- Strictly use the information provided about the child.
- Avoid adding any additional details or making inferences beyond what is provided.
- Conclude your response with a sentence providing a clickable HTML link to learn more about the child and how to support them.
- Do not use Markdown formatting (e.g., brackets or parentheses) or plain text for the link. Instead, use an HTML <a> tag with the target="_blank" attribute. For example: 'To learn more about [child's name] and how you can support them, please visit this link: <a href="[child's link]" target="_blank">[child's link]</a>'.
- Do not include any follow-up questions such as "Would you like to learn more about sponsoring [child's name]?" or similar phrases.

Here is the information about the alternative child:

`

const (
	semanticSearchNote = `The children below were selected because their profiles relate to "%s".`
	filteredSearchNote = `The children below match the sponsor's stated preferences.`
	childBlockDivider  = "\n---\n"
)

// composeRelevantDocs builds the FAQ grounding prompt from the ranked,
// deduplicated entries. Each block carries exactly the stored fields plus
// the entry's detail link, separated by a blank line.
func composeRelevantDocs(entries []faqs.FAQ) string {
	var b strings.Builder
	b.WriteString(faqGroundingPrompt)
	for _, f := range entries {
		fmt.Fprintf(&b, "ID: %d\nQuestion: %s\nAnswer: %s\nLink: %s\n\n",
			f.ID, f.Question, f.Answer, f.DetailPath())
	}
	return b.String()
}

// composeChildIntroduction builds the grounding prompt for a child search
// outcome. A fallback outcome uses the alternative-child template; a
// found outcome notes whether the match came from semantic search or
// structured filters.
func composeChildIntroduction(outcome SearchOutcome) string {
	blocks := make([]string, len(outcome.Children))
	for i, c := range outcome.Children {
		blocks[i] = formatChildBlock(c)
	}
	profiles := strings.Join(blocks, childBlockDivider)

	if !outcome.Found {
		return childFallbackPrompt + profiles
	}

	note := filteredSearchNote
	if outcome.SemanticKeyword != "" {
		note = fmt.Sprintf(semanticSearchNote, outcome.SemanticKeyword)
	}
	return fmt.Sprintf(childFoundPrompt, len(outcome.Children), note) + profiles
}

// formatChildBlock passes through exactly the stored attributes of one
// child; it never fabricates fields.
func formatChildBlock(c children.Child) string {
	return fmt.Sprintf(
		"Name: %s (ID: %d)\nAge: %d\nDate of Birth: %s\nGender: %s\nCountry: %s\nProfile Description: %s\nLink: %s",
		c.Name, c.ID, c.Age, c.DateOfBirth.Format("2006-01-02"),
		c.Gender, c.Country, c.ProfileDescription, c.DetailPath(),
	)
}
