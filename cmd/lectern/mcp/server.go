package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/search"
)

// GetClassArgs defines arguments for the get_class tool
type GetClassArgs struct {
	ClassID string `json:"class_id" jsonschema:"description=Class id as returned by list_classes,required"`
}

// GetSessionArgs defines arguments for the get_session tool
type GetSessionArgs struct {
	ClassID   string `json:"class_id" jsonschema:"required"`
	SessionID string `json:"session_id" jsonschema:"required"`
}

// AskQuestionArgs defines arguments for the ask_question tool
type AskQuestionArgs struct {
	ClassID  string `json:"class_id" jsonschema:"required"`
	Question string `json:"question" jsonschema:"required"`
}

// AskAcrossArgs defines arguments for the ask_across_classes tool
type AskAcrossArgs struct {
	Question string   `json:"question" jsonschema:"required"`
	ClassIDs []string `json:"class_ids,omitempty" jsonschema:"description=Classes to search (default: all)"`
}

// SearchSessionsArgs defines arguments for the search_sessions tool
type SearchSessionsArgs struct {
	Query   string `json:"query" jsonschema:"required"`
	ClassID string `json:"class_id,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// SessionMatch represents a search hit
type SessionMatch struct {
	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	Snippet   string `json:"snippet"`
}

// ClassSummary represents a class in the list view
type ClassSummary struct {
	ClassID       string `json:"class_id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	SessionsCount int    `json:"sessions_count"`
	LastSessionAt string `json:"last_session_at,omitempty"`
}

// SessionSummary represents a session inside a class
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	Summary   string `json:"summary,omitempty"`
}

// ClassDetail is a class with its sessions, newest first
type ClassDetail struct {
	ClassSummary
	Sessions []SessionSummary `json:"sessions"`
}

// SessionDetail is one session with its transcript and insights
type SessionDetail struct {
	SessionSummary
	ClassID  string            `json:"class_id"`
	Content  string            `json:"content"`
	Insights any               `json:"insights,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

const timeLayout = "2006-01-02 15:04:05"

// NewServer registers lectern's tools
func NewServer(database *db.DB, ag *agent.Agent) *server.MCPServer {
	s := server.NewMCPServer("Lectern", "1.0.0")

	s.AddTool(mcp.NewTool("list_classes",
		mcp.WithDescription("List all classes with their session counts"),
	), makeListClassesHandler(database))

	s.AddTool(mcp.NewTool("get_class",
		mcp.WithDescription("Get a class and its sessions (titles, dates, summaries), newest first"),
		mcp.WithString("class_id",
			mcp.Required(),
			mcp.Description("Class id as returned by list_classes")),
	), makeGetClassHandler(database))

	s.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get one session's full transcript, summary and insights"),
		mcp.WithString("class_id", mcp.Required(), mcp.Description("Class id")),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id within the class")),
	), makeGetSessionHandler(database))

	s.AddTool(mcp.NewTool("search_sessions",
		mcp.WithDescription("Find sessions whose title, transcript or summary mention the query. Quote the query for an exact phrase."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Keywords to search for")),
		mcp.WithString("class_id", mcp.Description("Only search this class")),
		mcp.WithNumber("limit", mcp.Description("Max number of sessions to return (default: 20)")),
	), makeSearchSessionsHandler(database))

	s.AddTool(mcp.NewTool("ask_question",
		mcp.WithDescription("Answer a question using only the lectures of one class"),
		mcp.WithString("class_id", mcp.Required(), mcp.Description("Class id")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
	), makeAskQuestionHandler(ag))

	s.AddTool(mcp.NewTool("ask_across_classes",
		mcp.WithDescription("Answer a question using the lectures of several classes, naming the class each fact comes from"),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithArray("class_ids",
			mcp.Description("Class ids to search (default: all classes)"),
			mcp.Items(map[string]any{"type": "string"})),
	), makeAskAcrossHandler(ag))

	return s
}

// StartServer serves the tools over stdio until stdin closes
func StartServer(database *db.DB, ag *agent.Agent) error {
	return server.ServeStdio(NewServer(database, ag))
}

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func bindArgs(request mcp.CallToolRequest, out any) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

// toolError reports failures as tool results so the client sees the reason
func toolError(err error) (*mcp.CallToolResult, error) {
	if kind := errs.KindOf(err); kind != errs.Unknown {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err)), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func makeListClassesHandler(database *db.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		classes, err := database.ListClasses()
		if err != nil {
			return toolError(err)
		}
		out := []ClassSummary{}
		for _, c := range classes {
			cs := ClassSummary{
				ClassID:       c.ClassID,
				Name:          c.Name,
				Code:          c.Code,
				SessionsCount: c.SessionsCount,
			}
			if c.LastSessionAt != nil {
				cs.LastSessionAt = c.LastSessionAt.Format(timeLayout)
			}
			out = append(out, cs)
		}
		return jsonResult(map[string]any{"classes": out})
	}
}

func makeGetClassHandler(database *db.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetClassArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		class, err := database.GetClass(args.ClassID)
		if err != nil {
			return toolError(err)
		}
		if class == nil {
			return toolError(errs.E(errs.NotFound, "get class", errs.ErrClassNotFound, args.ClassID))
		}

		detail := ClassDetail{
			ClassSummary: ClassSummary{
				ClassID:       class.ClassID,
				Name:          class.Name,
				Code:          class.Code,
				SessionsCount: class.SessionsCount,
			},
			Sessions: []SessionSummary{},
		}
		for _, s := range class.Sessions {
			detail.Sessions = append(detail.Sessions, SessionSummary{
				SessionID: s.SessionID,
				Title:     s.Title,
				CreatedAt: s.CreatedAt.Format(timeLayout),
				Summary:   s.SummaryText(),
			})
		}
		return jsonResult(detail)
	}
}

func makeGetSessionHandler(database *db.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetSessionArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		s, err := database.GetSession(args.ClassID, args.SessionID)
		if err != nil {
			return toolError(err)
		}
		if s == nil {
			return toolError(errs.E(errs.NotFound, "get session", errs.ErrSessionNotFound, args.ClassID, args.SessionID))
		}

		detail := SessionDetail{
			SessionSummary: SessionSummary{
				SessionID: s.SessionID,
				Title:     s.Title,
				CreatedAt: s.CreatedAt.Format(timeLayout),
				Summary:   s.SummaryText(),
			},
			ClassID:  s.ClassID,
			Content:  s.Content,
			Metadata: s.Metadata,
		}
		if s.Insights != nil {
			detail.Insights = s.Insights
		}
		return jsonResult(detail)
	}
}

func makeSearchSessionsHandler(database *db.DB) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SearchSessionsArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		results, err := search.Search(database, search.Filters{
			Query:   args.Query,
			ClassID: args.ClassID,
			Limit:   args.Limit,
		})
		if err != nil {
			return toolError(err)
		}

		matches := []SessionMatch{}
		for _, r := range results {
			matches = append(matches, SessionMatch{
				ClassID:   r.ClassID,
				ClassName: r.ClassName,
				SessionID: r.SessionID,
				Title:     r.Title,
				CreatedAt: r.CreatedAt.Format(timeLayout),
				Snippet:   r.Snippet,
			})
		}
		return jsonResult(map[string]any{"sessions": matches})
	}
}

func makeAskQuestionHandler(ag *agent.Agent) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args AskQuestionArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		answer, err := ag.AskQuestion(ctx, args.ClassID, args.Question)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(answer), nil
	}
}

func makeAskAcrossHandler(ag *agent.Agent) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args AskAcrossArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		answer, err := ag.AskAcrossClasses(ctx, args.Question, args.ClassIDs)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(answer), nil
	}
}
