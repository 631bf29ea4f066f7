package perpetua

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/goalsync/internal/domain"
)

// searchProductsQuery returns one page of the company's advertised products
// matching a free-text search inside a reporting window.
const searchProductsQuery = `query SearchProducts($companyId: ID!, $startDate: String!, $endDate: String!, $offset: Int!, $limit: Int!, $search: String) {
  products(companyId: $companyId, startDate: $startDate, endDate: $endDate, offset: $offset, limit: $limit, search: $search) {
    edges {
      node {
        id
        asin
        title
      }
    }
  }
}`

// dateLayout is the platform's reporting date format.
const dateLayout = "2006-01-02"

// ProductQuery is one product search request.
type ProductQuery struct {
	Search    string
	StartDate time.Time
	EndDate   time.Time
	Offset    int
	Limit     int
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type searchResponse struct {
	Data *struct {
		Products *struct {
			Edges []struct {
				Node struct {
					ID    flexID `json:"id"`
					ASIN  string `json:"asin"`
					Title string `json:"title"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// SearchProducts runs the product search query. An empty result is not an error.
func (c *Client) SearchProducts(ctx context.Context, q ProductQuery) ([]domain.ProductMatch, error) {
	const op = "search products"

	body, err := json.Marshal(graphQLRequest{
		Query: searchProductsQuery,
		Variables: map[string]any{
			"companyId": c.companyID,
			"startDate": q.StartDate.Format(dateLayout),
			"endDate":   q.EndDate.Format(dateLayout),
			"offset":    q.Offset,
			"limit":     q.Limit,
			"search":    q.Search,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling search query: %w", err)
	}

	respBody, err := c.do(ctx, op, c.graphqlURL, body)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &Error{Op: op, Body: string(respBody), Class: ClassRejected, Err: err}
	}

	if len(resp.Errors) > 0 {
		first := resp.Errors[0]
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, &Error{
			Op:    op,
			Body:  strings.Join(messages, "; "),
			Class: classifyGraphQLCode(first.Extensions.Code, first.Message),
		}
	}

	if resp.Data == nil || resp.Data.Products == nil {
		return []domain.ProductMatch{}, nil
	}

	matches := make([]domain.ProductMatch, 0, len(resp.Data.Products.Edges))
	for _, edge := range resp.Data.Products.Edges {
		id, err := strconv.ParseInt(string(edge.Node.ID), 10, 64)
		if err != nil {
			return nil, &Error{
				Op:    op,
				Body:  fmt.Sprintf("non-numeric product id %q", edge.Node.ID),
				Class: ClassRejected,
				Err:   err,
			}
		}
		matches = append(matches, domain.ProductMatch{
			ProductID: id,
			ASIN:      edge.Node.ASIN,
			Title:     edge.Node.Title,
		})
	}
	return matches, nil
}
