// Package api finds, downloads and converts website favicons.
//
// A favicon is located by fetching the page and taking the href of its first
// <link> whose rel contains the "icon" keyword. Pages without one fall back to
// /favicon.ico at the page origin. The icon is staged in a temporary file,
// inspected with ImageMagick identify, and its best layer is shrunk with convert:
//
//	err := api.GetFavicon(ctx, "https://go.dev/", "go.png")
//
// Use NewClient to change the HTTP client, the ImageMagick commands or the target size.
package api
