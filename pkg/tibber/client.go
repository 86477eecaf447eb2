package tibber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://api.tibber.com/v1-beta/gql"

	maxQueryAttempts = 3
)

const homesQuery = `{
  viewer {
    homes {
      id
      appNickname
      address { address1 }
      meteringPointData { consumptionEan gridCompany estimatedAnnualConsumption }
      features { realTimeConsumptionEnabled }
      currentSubscription {
        status
        priceInfo { current { total level currency startsAt } }
      }
    }
  }
}`

const priceInfoQuery = `query ($homeId: ID!) {
  viewer {
    home(id: $homeId) {
      id
      appNickname
      address { address1 }
      meteringPointData { consumptionEan gridCompany estimatedAnnualConsumption }
      features { realTimeConsumptionEnabled }
      currentSubscription {
        status
        priceInfo {
          current { total level currency startsAt }
          today { total level currency startsAt }
          tomorrow { total level currency startsAt }
        }
      }
    }
  }
}`

const subscriptionURLQuery = `{ viewer { websocketSubscriptionUrl } }`

type GraphQLClient struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

func CreateGraphQLClient(endpoint, token string, timeout time.Duration, logger *zap.Logger) (*GraphQLClient, error) {
	if token == "" {
		return nil, errors.New("tibber: access token is required")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphQLClient{
		endpoint: endpoint,
		token:    token,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With(zap.String("component", "tibber")),
	}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type gqlError struct {
	Message string `json:"message"`
}

func (c *GraphQLClient) GetHomes(ctx context.Context) ([]Home, error) {
	var data struct {
		Viewer struct {
			Homes []Home `json:"homes"`
		} `json:"viewer"`
	}
	if err := c.query(ctx, homesQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.Viewer.Homes, nil
}

func (c *GraphQLClient) GetPriceInfo(ctx context.Context, homeID string) (*Home, *PriceInfo, error) {
	var data struct {
		Viewer struct {
			Home *Home `json:"home"`
		} `json:"viewer"`
	}
	vars := map[string]any{"homeId": homeID}
	if err := c.query(ctx, priceInfoQuery, vars, &data); err != nil {
		return nil, nil, err
	}
	home := data.Viewer.Home
	if home == nil {
		return nil, nil, fmt.Errorf("tibber: unknown home %s", homeID)
	}
	if home.CurrentSubscription == nil || home.CurrentSubscription.PriceInfo == nil {
		return home, nil, fmt.Errorf("tibber: home %s has no price info", homeID)
	}
	return home, home.CurrentSubscription.PriceInfo, nil
}

func (c *GraphQLClient) OpenLiveStream(homeID string, handler StreamHandler) (LiveStream, error) {
	url, err := c.subscriptionURL(context.Background())
	if err != nil {
		return nil, err
	}
	return openLiveStream(url, c.token, homeID, handler, c.logger), nil
}

func (c *GraphQLClient) subscriptionURL(ctx context.Context) (string, error) {
	var data struct {
		Viewer struct {
			WebsocketSubscriptionURL string `json:"websocketSubscriptionUrl"`
		} `json:"viewer"`
	}
	if err := c.query(ctx, subscriptionURLQuery, nil, &data); err != nil {
		return "", err
	}
	if data.Viewer.WebsocketSubscriptionURL == "" {
		return "", errors.New("tibber: no websocket subscription url")
	}
	return data.Viewer.WebsocketSubscriptionURL, nil
}

// query runs a GraphQL request, retrying transient failures with backoff.
func (c *GraphQLClient) query(ctx context.Context, query string, vars map[string]any, out any) error {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt < maxQueryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			c.logger.Debug("retrying query", zap.Int("attempt", attempt+1))
		}

		err := c.queryOnce(ctx, query, vars, out)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("tibber: query failed after %d attempts: %w", maxQueryAttempts, lastErr)
}

func (c *GraphQLClient) queryOnce(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("tibber: unexpected status %d", resp.StatusCode)
	}

	var envelope gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("tibber: %s", envelope.Errors[0].Message)
	}
	return json.Unmarshal(envelope.Data, out)
}
