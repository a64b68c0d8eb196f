package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var ErrUnknownPincode = errors.New("unknown pincode")

type Place struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type PincodeCache interface {
	GetPlace(ctx context.Context, pin string) (Place, bool, error)
	SetPlace(ctx context.Context, pin string, p Place) error
}

var builtinPincodes = map[string]Place{
	"110001": {City: "New Delhi", State: "Delhi"},
	"400001": {City: "Mumbai", State: "Maharashtra"},
	"560001": {City: "Bangalore", State: "Karnataka"},
}

// PincodeResolver looks a pincode up in the cache, then the remote API, then
// the built-in table.
type PincodeResolver struct {
	apiURL string
	http   *http.Client
	cache  PincodeCache
	log    *zap.Logger
}

// NewPincodeResolver accepts an empty apiURL and a nil cache.
func NewPincodeResolver(apiURL string, hc *http.Client, cache PincodeCache, log *zap.Logger) *PincodeResolver {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PincodeResolver{apiURL: strings.TrimRight(apiURL, "/"), http: hc, cache: cache, log: log}
}

func (r *PincodeResolver) Resolve(ctx context.Context, pin string) (Place, error) {
	if !ValidPincode(pin) {
		return Place{}, ErrUnknownPincode
	}
	if r.cache != nil {
		if p, ok, err := r.cache.GetPlace(ctx, pin); err == nil && ok {
			return p, nil
		} else if err != nil {
			r.log.Warn("pincode cache read failed", zap.String("pincode", pin), zap.Error(err))
		}
	}

	if r.apiURL != "" {
		p, err := r.fetch(ctx, pin)
		if err == nil {
			r.remember(ctx, pin, p)
			return p, nil
		}
		r.log.Warn("pincode lookup failed, using built-in table", zap.String("pincode", pin), zap.Error(err))
	}

	if p, ok := builtinPincodes[pin]; ok {
		return p, nil
	}
	return Place{}, ErrUnknownPincode
}

// Fill sets City and State from the pincode when the lookup succeeds and
// leaves a unchanged otherwise.
func (r *PincodeResolver) Fill(ctx context.Context, a Address) Address {
	if p, err := r.Resolve(ctx, a.Pincode); err == nil {
		a.City, a.State = p.City, p.State
	}
	return a
}

func (r *PincodeResolver) remember(ctx context.Context, pin string, p Place) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetPlace(ctx, pin, p); err != nil {
		r.log.Warn("pincode cache write failed", zap.String("pincode", pin), zap.Error(err))
	}
}

type postOfficeResponse struct {
	Status     string `json:"Status"`
	PostOffice []struct {
		District string `json:"District"`
		State    string `json:"State"`
	} `json:"PostOffice"`
}

func (r *PincodeResolver) fetch(ctx context.Context, pin string) (Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+"/"+url.PathEscape(pin), nil)
	if err != nil {
		return Place{}, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return Place{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("pincode api: %s", resp.Status)
	}

	var body []postOfficeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("decode pincode response: %w", err)
	}
	for _, b := range body {
		if !strings.EqualFold(b.Status, "success") {
			continue
		}
		for _, po := range b.PostOffice {
			if po.District != "" && po.State != "" {
				return Place{City: po.District, State: po.State}, nil
			}
		}
	}
	return Place{}, ErrUnknownPincode
}
