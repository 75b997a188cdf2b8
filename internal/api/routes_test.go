package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/config"
	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/models"
	"github.com/colletr/colletr/backend/internal/services"
	"github.com/colletr/colletr/backend/internal/valuation"
)

type stubGateway struct {
	price   float64
	fail    bool
	idName  string
	idMaker string
}

func (g *stubGateway) Identify(context.Context, []byte, models.Category) (*valuation.Identification, error) {
	if g.fail {
		return nil, &valuation.IdentificationError{Err: fmt.Errorf("unreachable")}
	}
	return &valuation.Identification{
		Name:         g.idName,
		Manufacturer: g.idMaker,
		ItemType:     models.ItemTypeHome,
	}, nil
}

func (g *stubGateway) Valuate(context.Context, string, models.Condition) (*models.Valuation, error) {
	if g.fail {
		return nil, &valuation.ValuationError{Err: fmt.Errorf("unreachable")}
	}
	return &models.Valuation{
		Currency:     "BRL",
		AveragePrice: g.price,
		LastUpdated:  time.Now(),
	}, nil
}

func newTestRouter(t *testing.T, gateway valuation.Gateway) (*gin.Engine, *catalog.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := catalog.NewStore(logger.Nop(), catalog.ChangeHooks{})
	worker := services.NewAlertWorker(store, gateway, time.Hour, logger.Nop())
	router := SetupRouter(&config.Config{}, store, gateway, worker)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCollectionAndItemFlow(t *testing.T) {
	router, _ := newTestRouter(t, &stubGateway{price: 450})

	w := doJSON(t, router, "POST", "/api/collections", models.CreateCollectionRequest{
		Name: "Quarto dos fundos", Category: models.CategoryConsoles,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create collection: status %d: %s", w.Code, w.Body)
	}
	var col models.Collection
	if err := json.Unmarshal(w.Body.Bytes(), &col); err != nil {
		t.Fatalf("decode collection: %v", err)
	}

	w = doJSON(t, router, "POST", "/api/collections/"+col.ID+"/items", models.AddItemRequest{
		Name: "Mega Drive", Manufacturer: "Sega",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add item: status %d: %s", w.Code, w.Body)
	}
	var item models.Item
	json.Unmarshal(w.Body.Bytes(), &item)
	if item.Condition != models.ConditionLoose {
		t.Errorf("default condition = %q, want LOOSE", item.Condition)
	}

	w = doJSON(t, router, "GET", "/api/collections/"+col.ID+"/items", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list items: status %d", w.Code)
	}
	var items []models.Item
	json.Unmarshal(w.Body.Bytes(), &items)
	if len(items) != 1 || items[0].ID != item.ID {
		t.Errorf("items = %+v", items)
	}

	w = doJSON(t, router, "DELETE", "/api/collections/"+col.ID+"/items/"+item.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete item: status %d", w.Code)
	}
}

func TestUnresolvedIDsAnswer404(t *testing.T) {
	router, store := newTestRouter(t, &stubGateway{})
	col, _ := store.CreateCollection(context.Background(), "x", "", models.CategoryGames)

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{"GET", "/api/collections/nope/items", nil},
		{"GET", "/api/collections/nope/stats", nil},
		{"GET", "/api/collections/nope/level", nil},
		{"PUT", "/api/collections/nope", models.UpdateCollectionRequest{}},
		{"DELETE", "/api/collections/nope", nil},
		{"POST", "/api/collections/nope/items", models.AddItemRequest{Name: "x"}},
		{"PUT", "/api/collections/" + col.ID + "/items/nope", models.UpdateItemRequest{}},
		{"DELETE", "/api/collections/" + col.ID + "/items/nope", nil},
		{"POST", "/api/collections/" + col.ID + "/items/nope/valuation/refresh", nil},
		{"PUT", "/api/categories/nope", models.CategoryRequest{Name: "y"}},
		{"DELETE", "/api/categories/nope", nil},
	} {
		w := doJSON(t, router, tc.method, tc.path, tc.body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: status %d, want 404", tc.method, tc.path, w.Code)
		}
	}
}

func TestCategoryDeleteConflict(t *testing.T) {
	router, store := newTestRouter(t, &stubGateway{})
	ctx := context.Background()

	w := doJSON(t, router, "POST", "/api/categories", models.CategoryRequest{Name: "Arcade"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add category: status %d", w.Code)
	}
	var cat models.CustomCategory
	json.Unmarshal(w.Body.Bytes(), &cat)

	store.CreateCollection(ctx, "fliperama", "", models.Category("Arcade"))

	w = doJSON(t, router, "DELETE", "/api/categories/"+cat.ID, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("delete referenced category: status %d, want 409", w.Code)
	}
}

func TestValuateFallsBackWith200(t *testing.T) {
	router, _ := newTestRouter(t, &stubGateway{fail: true})

	w := doJSON(t, router, "POST", "/api/valuate", models.ValuateRequest{ItemName: "Mega Drive"})
	if w.Code != http.StatusOK {
		t.Fatalf("valuate: status %d, want 200 with fallback", w.Code)
	}

	var resp struct {
		Valuation models.Valuation `json:"valuation"`
		Rarity    struct {
			Tier string `json:"tier"`
		} `json:"rarity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Valuation.AveragePrice != 0 || resp.Valuation.Currency != "BRL" {
		t.Errorf("fallback valuation = %+v", resp.Valuation)
	}
	if resp.Rarity.Tier != "Common" {
		t.Errorf("rarity = %q, want Common", resp.Rarity.Tier)
	}
}

func TestIdentifyFailureIs502(t *testing.T) {
	router, _ := newTestRouter(t, &stubGateway{fail: true})

	w := doJSON(t, router, "POST", "/api/identify", models.IdentifyRequest{
		ImageData: "aGVsbG8=",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("identify: status %d, want 502", w.Code)
	}
}

func TestIdentifyAcceptsDataURI(t *testing.T) {
	router, _ := newTestRouter(t, &stubGateway{idName: "Game Boy", idMaker: "Nintendo"})

	w := doJSON(t, router, "POST", "/api/identify", models.IdentifyRequest{
		ImageData: "data:image/jpeg;base64,aGVsbG8=",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("identify: status %d: %s", w.Code, w.Body)
	}
	var resp models.IdentifyResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Name != "Game Boy" || resp.Manufacturer != "Nintendo" {
		t.Errorf("response = %+v", resp)
	}
}

func TestRefreshValuationAppliesResult(t *testing.T) {
	router, store := newTestRouter(t, &stubGateway{price: 1500})
	ctx := context.Background()

	col, _ := store.CreateCollection(ctx, "x", "", models.CategoryConsoles)
	item, _, _ := store.AddItem(ctx, col.ID, models.AddItemRequest{Name: "Neo Geo"})

	w := doJSON(t, router, "POST", "/api/collections/"+col.ID+"/items/"+item.ID+"/valuation/refresh", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Applied bool `json:"applied"`
		Rarity  struct {
			Tier string `json:"tier"`
		} `json:"rarity"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Applied {
		t.Error("valuation not applied")
	}
	if resp.Rarity.Tier != "Epic" {
		t.Errorf("rarity = %q, want Epic at 1500", resp.Rarity.Tier)
	}

	items, _ := store.Items(col.ID)
	if items[0].Valuation == nil || items[0].Valuation.AveragePrice != 1500 {
		t.Errorf("stored valuation = %+v", items[0].Valuation)
	}
}

func TestSetPriceAlertValidation(t *testing.T) {
	router, store := newTestRouter(t, &stubGateway{})
	ctx := context.Background()

	col, _ := store.CreateCollection(ctx, "x", "", models.CategoryConsoles)
	item, _, _ := store.AddItem(ctx, col.ID, models.AddItemRequest{Name: "Saturn"})

	path := "/api/collections/" + col.ID + "/items/" + item.ID + "/alert"
	w := doJSON(t, router, "PUT", path, models.SetPriceAlertRequest{
		Enabled: true, ThresholdPercentage: 75,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range threshold: status %d, want 400", w.Code)
	}

	w = doJSON(t, router, "PUT", path, models.SetPriceAlertRequest{
		Enabled: true, ThresholdPercentage: 15,
	})
	if w.Code != http.StatusOK {
		t.Errorf("valid threshold: status %d: %s", w.Code, w.Body)
	}
}

func TestLevelAndAchievementsEndpoints(t *testing.T) {
	router, store := newTestRouter(t, &stubGateway{})
	ctx := context.Background()

	col, _ := store.CreateCollection(ctx, "x", "", models.CategoryMixed)
	for i := 0; i < 5; i++ {
		store.AddItem(ctx, col.ID, models.AddItemRequest{Name: fmt.Sprintf("item-%d", i)})
	}

	w := doJSON(t, router, "GET", "/api/collections/"+col.ID+"/level", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("level: status %d", w.Code)
	}
	var level struct {
		Level int    `json:"level"`
		Title string `json:"title"`
	}
	json.Unmarshal(w.Body.Bytes(), &level)
	if level.Level != 2 {
		t.Errorf("level = %d, want 2 for 5 zero-valued items", level.Level)
	}

	w = doJSON(t, router, "GET", "/api/collections/"+col.ID+"/achievements", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("achievements: status %d", w.Code)
	}
	var achievements []struct {
		ID       string `json:"id"`
		Unlocked bool   `json:"unlocked"`
	}
	json.Unmarshal(w.Body.Bytes(), &achievements)
	if len(achievements) != 8 {
		t.Fatalf("got %d achievements, want the full catalog of 8", len(achievements))
	}
	if achievements[0].ID != "start" || !achievements[0].Unlocked {
		t.Errorf("first achievement = %+v, want unlocked 'start'", achievements[0])
	}
	if achievements[1].ID != "stack" || !achievements[1].Unlocked {
		t.Errorf("second achievement = %+v, want unlocked 'stack'", achievements[1])
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubGateway{})
	w := doJSON(t, router, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health: status %d", w.Code)
	}
}
