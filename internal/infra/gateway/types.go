package gateway

// Display payloads.

type TableColumn struct {
	Key   string `json:"key" jsonschema:"row field rendered in this column"`
	Label string `json:"label" jsonschema:"column heading"`
	Align string `json:"align,omitempty" jsonschema:"left, center or right"`
}

type DisplayTableInput struct {
	Title   string           `json:"title,omitempty" jsonschema:"heading shown above the table"`
	Columns []TableColumn    `json:"columns" jsonschema:"columns in display order"`
	Rows    []map[string]any `json:"rows" jsonschema:"row objects keyed by column key"`
}

type DisplayTableOutput struct {
	Title    string           `json:"title,omitempty"`
	Columns  []TableColumn    `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"rowCount"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type DisplayChartInput struct {
	Title  string       `json:"title,omitempty"`
	Type   string       `json:"type,omitempty" jsonschema:"chart kind, defaults to bar"`
	Data   []ChartPoint `json:"data" jsonschema:"labelled values to plot"`
	XLabel string       `json:"xLabel,omitempty"`
	YLabel string       `json:"yLabel,omitempty"`
}

type DisplayChartOutput struct {
	Title  string       `json:"title,omitempty"`
	Type   string       `json:"type"`
	Data   []ChartPoint `json:"data"`
	XLabel string       `json:"xLabel,omitempty"`
	YLabel string       `json:"yLabel,omitempty"`
}

type ListItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty" jsonschema:"image URL"`
	Badge       string `json:"badge,omitempty"`
}

type DisplayListInput struct {
	Title string     `json:"title,omitempty"`
	Items []ListItem `json:"items"`
}

type DisplayListOutput struct {
	Title     string     `json:"title,omitempty"`
	Items     []ListItem `json:"items"`
	ItemCount int        `json:"itemCount"`
}

type CarouselItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty" jsonschema:"image URL"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

type DisplayCarouselInput struct {
	Title string         `json:"title,omitempty"`
	Items []CarouselItem `json:"items"`
}

type DisplayCarouselOutput struct {
	Title     string         `json:"title,omitempty"`
	Items     []CarouselItem `json:"items"`
	ItemCount int            `json:"itemCount"`
}

type Stat struct {
	Label  string   `json:"label"`
	Value  string   `json:"value"`
	Change *float64 `json:"change,omitempty" jsonschema:"relative change in percent"`
	Trend  string   `json:"trend,omitempty" jsonschema:"derived from change when omitted"`
}

type DisplayStatsInput struct {
	Title string `json:"title,omitempty"`
	Stats []Stat `json:"stats"`
}

type DisplayStatsOutput struct {
	Title string `json:"title,omitempty"`
	Stats []Stat `json:"stats"`
}

// Cart and shop payloads.

type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price" jsonschema:"unit price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

type AddToCartInput struct {
	Items     []CartItem `json:"items" jsonschema:"items to add"`
	SessionID string     `json:"sessionId,omitempty" jsonschema:"cart session, generated when omitted"`
}

type RemoveFromCartInput struct {
	ItemIDs   []string `json:"itemIds" jsonschema:"ids of the items to remove"`
	SessionID string   `json:"sessionId,omitempty"`
}

type RemoveFromCartOutput struct {
	Action    string   `json:"action"`
	ItemIDs   []string `json:"itemIds"`
	SessionID string   `json:"sessionId,omitempty"`
}

type ShowCartInput struct {
	SessionID string     `json:"sessionId,omitempty"`
	Items     []CartItem `json:"items,omitempty" jsonschema:"cart contents known to the caller"`
}

type CartOutput struct {
	Action    string     `json:"action"`
	Items     []CartItem `json:"items"`
	SessionID string     `json:"sessionId"`
	ItemCount int        `json:"itemCount"`
	Subtotal  float64    `json:"subtotal"`
}

type ViewShopInput struct {
	View      string     `json:"view,omitempty" jsonschema:"shop step, defaults to cart"`
	Items     []CartItem `json:"items,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
}

type ViewShopOutput struct {
	View      string     `json:"view"`
	Items     []CartItem `json:"items"`
	SessionID string     `json:"sessionId,omitempty"`
	Subtotal  float64    `json:"subtotal"`
}

type PlaceOrderInput struct {
	Items          []CartItem `json:"items,omitempty"`
	DeliveryOption string     `json:"deliveryOption,omitempty" jsonschema:"defaults to standard"`
	TipPercent     *int       `json:"tipPercent,omitempty" jsonschema:"tip in percent, defaults to 10"`
	SessionID      string     `json:"sessionId,omitempty"`
}

type PlaceOrderOutput struct {
	View           string     `json:"view"`
	OrderID        string     `json:"orderId"`
	DeliveryOption string     `json:"deliveryOption"`
	TipPercent     int        `json:"tipPercent"`
	Items          []CartItem `json:"items,omitempty"`
	Subtotal       float64    `json:"subtotal,omitempty"`
	SessionID      string     `json:"sessionId,omitempty"`
}

// Auth demo payloads.

type AuthUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

type AuthState struct {
	Authenticated bool      `json:"authenticated"`
	User          *AuthUser `json:"user,omitempty"`
	AccessToken   string    `json:"accessToken,omitempty"`
	RefreshToken  string    `json:"refreshToken,omitempty"`
	ExpiresAt     string    `json:"expiresAt,omitempty"`
}

type AuthStatusInput struct {
	AccessToken string `json:"accessToken,omitempty"`
}

type AuthLoginInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"identity provider, defaults to demo"`
	Email    string `json:"email,omitempty"`
}

type AuthLogoutInput struct {
	AccessToken string `json:"accessToken,omitempty"`
}

type AuthRefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// PreviewOutput echoes a preview call.
type PreviewOutput struct {
	Widget  string         `json:"widget"`
	Payload map[string]any `json:"payload"`
}
