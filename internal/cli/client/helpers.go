package client

import (
	"context"
	"fmt"
	"net/url"
)

// getResource performs a GET request to the given path and decodes the response
// body into a value of type T.
func getResource[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var result T
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// listResources performs a GET request to the given path and decodes the response
// body into a slice of type T.
func listResources[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var results []T
	if err := c.get(ctx, path, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// createResource performs a POST request and decodes the response into T.
func createResource[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.post(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// replaceResource performs a PUT request and decodes the response into T.
func replaceResource[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.put(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// patchResource performs a PATCH request and decodes the response into T.
func patchResource[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	var result T
	if err := c.patch(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// resourcePath builds a path from a template, escaping every argument.
//
//	path := resourcePath("/api/users/%s", id)
func resourcePath(format string, args ...string) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(a)
	}
	return fmt.Sprintf(format, escaped...)
}

// withQuery appends non-empty query parameters to path
func withQuery(path string, params url.Values) string {
	for k, vs := range params {
		if len(vs) == 0 || vs[0] == "" {
			params.Del(k)
		}
	}
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
