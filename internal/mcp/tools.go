package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchFAQsTool defines the search_faqs MCP tool.
var searchFAQsTool = mcp.NewTool("search_faqs",
	mcp.WithDescription("Search the charity's FAQ entries semantically. Each entry has a question and an answer; the keywords are matched against both."),
	mcp.WithArray("keywords",
		mcp.Required(),
		mcp.Description("Keywords or short phrases capturing the question"),
		mcp.WithStringItems(),
	),
)

// findChildrenTool defines the find_children MCP tool.
var findChildrenTool = mcp.NewTool("find_children",
	mcp.WithDescription("Find sponsorable children by attributes and/or a free-text profile description. When nothing matches, one randomly chosen child is suggested instead."),
	mcp.WithString("gender",
		mcp.Description("Preferred gender: 'female', 'male', or 'other'. Omit if no preference."),
	),
	mcp.WithNumber("min_age",
		mcp.Description("Minimum preferred age"),
	),
	mcp.WithNumber("max_age",
		mcp.Description("Maximum preferred age"),
	),
	mcp.WithString("country",
		mcp.Description("The country the child is from"),
	),
	mcp.WithString("profile_description",
		mcp.Description("Keywords or interests to match in the child's profile"),
	),
	mcp.WithNumber("birth_month",
		mcp.Description("Birth month, 1-12"),
	),
	mcp.WithNumber("birth_day",
		mcp.Description("Birth day, 1-31"),
	),
)
