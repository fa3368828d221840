package handlers

import (
	"encoding/json"
	"strings"

	"productapi/internal/graph"
	"productapi/internal/middleware"
	"productapi/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// CodeBadRequest marks HTTP requests that do not carry a GraphQL document.
const CodeBadRequest = "BAD_REQUEST"

// GraphQLHandler serves the product schema over HTTP.
type GraphQLHandler struct {
	schema    *graphql.Schema
	formatter *graph.ErrorFormatter
	log       *logger.Logger
}

// NewGraphQLHandler creates a new GraphQLHandler.
func NewGraphQLHandler(schema *graphql.Schema, formatter *graph.ErrorFormatter, log *logger.Logger) *GraphQLHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GraphQLHandler{schema: schema, formatter: formatter, log: log}
}

// RegisterRoutes registers the GraphQL routes with the Fiber app.
func (h *GraphQLHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/graphql", h.HandlePost)
	router.Get("/graphql", h.HandleGet)
}

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// HandlePost executes a JSON encoded GraphQL request.
func (h *GraphQLHandler) HandlePost(c *fiber.Ctx) error {
	var req graphQLRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		h.log.Debug().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("invalid graphql request body")
		return badRequest(c, "request body must be a JSON object with a query")
	}
	return h.execute(c, req)
}

// HandleGet executes a query passed in the URL. Mutations are only accepted over POST.
func (h *GraphQLHandler) HandleGet(c *fiber.Ctx) error {
	req := graphQLRequest{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return badRequest(c, "variables must be a JSON object")
		}
	}
	if isMutation(req.Query, req.OperationName) {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(errorBody(CodeBadRequest, "mutations must use POST"))
	}
	return h.execute(c, req)
}

func (h *GraphQLHandler) execute(c *fiber.Ctx, req graphQLRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return badRequest(c, "query is required")
	}

	resp := h.schema.Exec(c.UserContext(), req.Query, req.OperationName, req.Variables)
	h.formatter.Format(resp.Errors)

	// Documents rejected before execution produce no data.
	status := fiber.StatusOK
	if resp.Data == nil && len(resp.Errors) > 0 {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(resp)
}

// isMutation reports whether the operation selected by operationName is a
// mutation. Documents that do not parse, or name no single operation, are left
// for the engine to reject.
func isMutation(query, operationName string) bool {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return false
	}
	op := doc.Operations.ForName(operationName)
	return op != nil && op.Operation == ast.Mutation
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody(CodeBadRequest, message))
}

func errorBody(code, message string) fiber.Map {
	return fiber.Map{
		"errors": []fiber.Map{{
			"message":    message,
			"extensions": fiber.Map{"code": code},
		}},
	}
}
