package mcp

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/ka2n/getfavicon/api"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
	"github.com/morikuni/failure/v2"
)

var validate = validator.New()

// faviconClient is the part of api.Client the tools call
type faviconClient interface {
	ResolveURL(ctx context.Context, pageURL string) (string, error)
	GetFavicon(ctx context.Context, pageURL string, outputPath string) error
}

var _ faviconClient = (*api.Client)(nil)

func InitTools(client *api.Client) []server.ServerTool {
	return initTools(client)
}

func initTools(client faviconClient) []server.ServerTool {
	tools := []server.ServerTool{}

	tools = append(tools, newServerTool(GetFavicon(client)))
	tools = append(tools, newServerTool(ResolveFaviconURL(client)))

	return tools
}

// errorMessage prefers the user-facing failure message
func errorMessage(err error) string {
	if msg := failure.MessageOf(err); msg != "" {
		return msg.String()
	}
	return err.Error()
}

func ResolveFaviconURL(client faviconClient) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"resolve_favicon_url",
			mcp.WithDescription("Find the favicon URL of a web page without downloading it"),
			mcp.WithString("page_url", mcp.Required(), mcp.Description("Absolute URL of the page")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				PageURL string `json:"page_url" mapstructure:"page_url" validate:"required,url"`
			}
			var args ToolArguments
			if err := mapstructure.Decode(req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := validate.StructCtx(ctx, args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			iconURL, err := client.ResolveURL(ctx, args.PageURL)
			if err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			type Result struct {
				PageURL    string `json:"page_url"`
				FaviconURL string `json:"favicon_url"`
			}

			b, err := json.Marshal(Result{PageURL: args.PageURL, FaviconURL: iconURL})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return mcp.NewToolResultText(string(b)), nil
		}
}

func GetFavicon(client faviconClient) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool(
			"get_favicon",
			mcp.WithDescription("Download the favicon of a web page, shrink it to the configured size (default 16x16) and write it to a file"),
			mcp.WithString("page_url", mcp.Required(), mcp.Description("Absolute URL of the page")),
			mcp.WithString("output_path", mcp.Required(), mcp.Description("File to write; the extension selects the image format (e.g. .png)")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			type ToolArguments struct {
				PageURL    string `json:"page_url" mapstructure:"page_url" validate:"required,url"`
				OutputPath string `json:"output_path" mapstructure:"output_path" validate:"required"`
			}
			var args ToolArguments
			if err := mapstructure.Decode(req.Params.Arguments, &args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := validate.StructCtx(ctx, args); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			if err := client.GetFavicon(ctx, args.PageURL, args.OutputPath); err != nil {
				return mcp.NewToolResultError(errorMessage(err)), nil
			}

			type Result struct {
				PageURL    string `json:"page_url"`
				OutputPath string `json:"output_path"`
			}

			b, err := json.Marshal(Result{PageURL: args.PageURL, OutputPath: args.OutputPath})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return mcp.NewToolResultText(string(b)), nil
		}
}
