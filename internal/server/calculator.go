package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ph-studio/internal/cart"
	"ph-studio/internal/metrics"
	"ph-studio/internal/quote"
)

// printForm and engraveForm keep the raw calculator inputs so the page can
// show them back unchanged.
type printForm struct {
	Printer string
	X, Y, Z string
	Qty     string
}

func readPrintForm(get func(string) string) printForm {
	return printForm{
		Printer: get("printer"),
		X:       get("x"),
		Y:       get("y"),
		Z:       get("z"),
		Qty:     get("qty"),
	}
}

func (f printForm) submitted() bool {
	return f.X != "" || f.Y != "" || f.Z != ""
}

func (f printForm) request() quote.PrintRequest {
	return quote.PrintRequest{
		Printer: f.Printer,
		Dimensions: quote.Dimensions{
			X: quote.ParseDimension(f.X),
			Y: quote.ParseDimension(f.Y),
			Z: quote.ParseDimension(f.Z),
		},
		Quantity: quote.ParseQuantity(f.Qty),
	}
}

type engraveForm struct {
	Surface    string
	Area       string
	Complexity string
	Qty        string
	Text       string
}

func readEngraveForm(get func(string) string) engraveForm {
	return engraveForm{
		Surface:    get("surface"),
		Area:       get("area"),
		Complexity: get("complexity"),
		Qty:        get("eqty"),
		Text:       get("text"),
	}
}

func (f engraveForm) submitted() bool {
	return f.Area != ""
}

func (f engraveForm) request() quote.EngraveRequest {
	return quote.EngraveRequest{
		Surface:    f.Surface,
		AreaCm2:    quote.ParseDimension(f.Area),
		Complexity: quote.ParseComplexity(f.Complexity),
		Quantity:   quote.ParseQuantity(f.Qty),
	}
}

type calculatorView struct {
	Printers     []quote.PrinterProfile
	Surfaces     []quote.EngraveSurfaceProfile
	Tiers        []quote.DiscountTier
	Print        printForm
	Engrave      engraveForm
	PrintQuote   *quote.PrintQuote
	EngraveQuote *quote.EngraveQuote
	PrintError   string
	EngraveError string
}

func (s *Server) newCalculatorView(get func(string) string) calculatorView {
	v := calculatorView{
		Printers: s.catalog.Printers(),
		Surfaces: s.catalog.Surfaces(),
		Tiers:    s.catalog.Tiers(),
		Print:    readPrintForm(get),
		Engrave:  readEngraveForm(get),
	}
	if v.Print.Printer == "" && len(v.Printers) > 0 {
		v.Print.Printer = v.Printers[0].Key
	}
	if v.Engrave.Surface == "" && len(v.Surfaces) > 0 {
		v.Engrave.Surface = v.Surfaces[0].Key
	}
	if v.Engrave.Complexity == "" {
		v.Engrave.Complexity = "5"
	}
	return v
}

func (s *Server) quotePrint(req quote.PrintRequest) (quote.PrintQuote, error) {
	q, err := s.catalog.QuotePrint(req)
	switch {
	case err != nil:
		s.metrics.Quote(metrics.QuotePrint, metrics.OutcomeRejected)
	case !q.Valid:
		s.metrics.Quote(metrics.QuotePrint, metrics.OutcomeInvalid)
	default:
		s.metrics.Quote(metrics.QuotePrint, metrics.OutcomeOK)
	}
	return q, err
}

func (s *Server) quoteEngrave(req quote.EngraveRequest) (quote.EngraveQuote, error) {
	q, err := s.catalog.QuoteEngrave(req)
	if err != nil {
		s.metrics.Quote(metrics.QuoteEngrave, metrics.OutcomeRejected)
	} else {
		s.metrics.Quote(metrics.QuoteEngrave, metrics.OutcomeOK)
	}
	return q, err
}

// applyPrint fills the print half of v and reports the status the page
// should be served with.
func (s *Server) applyPrint(v *calculatorView) (*quote.PrintQuote, int) {
	q, err := s.quotePrint(v.Print.request())
	if err != nil {
		v.PrintError = quoteMessage(err)
		return nil, http.StatusBadRequest
	}
	v.PrintQuote = &q
	if !q.Valid {
		v.PrintError = q.Issue
		return &q, http.StatusUnprocessableEntity
	}
	return &q, http.StatusOK
}

func (s *Server) applyEngrave(v *calculatorView) (*quote.EngraveQuote, int) {
	q, err := s.quoteEngrave(v.Engrave.request())
	if err != nil {
		v.EngraveError = quoteMessage(err)
		return nil, http.StatusBadRequest
	}
	v.EngraveQuote = &q
	return &q, http.StatusOK
}

// calculatorPage recomputes whatever the query string describes; a bad input
// is shown next to the form, the page itself is still served.
func (s *Server) calculatorPage(c *gin.Context) {
	v := s.newCalculatorView(c.Query)
	if v.Print.submitted() {
		s.applyPrint(&v)
	}
	if v.Engrave.submitted() {
		s.applyEngrave(&v)
	}
	s.render(c, http.StatusOK, "calculator.html", "Калкулатор", v)
}

func (s *Server) addPrintQuote(c *gin.Context) {
	v := s.newCalculatorView(c.PostForm)
	q, status := s.applyPrint(&v)
	if status != http.StatusOK {
		s.render(c, status, "calculator.html", "Калкулатор", v)
		return
	}

	line, err := cart.FromPrintQuote(*q)
	if err != nil {
		s.pageFailed(c, err, "Артикулът не беше добавен.")
		return
	}
	s.addToCart(c, line)
}

func (s *Server) addEngraveQuote(c *gin.Context) {
	v := s.newCalculatorView(c.PostForm)
	q, status := s.applyEngrave(&v)
	if status != http.StatusOK {
		s.render(c, status, "calculator.html", "Калкулатор", v)
		return
	}
	s.addToCart(c, cart.FromEngraveQuote(*q, cart.TruncateText(v.Engrave.Text)))
}

type printQuoteRequest struct {
	Printer    string           `json:"printer"`
	Dimensions quote.Dimensions `json:"dimensions"`
	Quantity   *int             `json:"quantity"`
}

type engraveQuoteRequest struct {
	Surface    string  `json:"surface"`
	AreaCm2    float64 `json:"areaCm2"`
	Complexity *int    `json:"complexity"`
	Quantity   *int    `json:"quantity"`
}

// orDefault returns the value behind p, or def when the field was omitted.
func orDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func (s *Server) apiCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"printers":  s.catalog.Printers(),
		"materials": s.catalog.Materials(),
		"surfaces":  s.catalog.Surfaces(),
		"tiers":     s.catalog.Tiers(),
		"pricing":   s.catalog.Pricing(),
	})
}

func (s *Server) apiQuotePrint(c *gin.Context) {
	var req printQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, badRequest("Невалидни данни.", err))
		return
	}

	q, err := s.quotePrint(quote.PrintRequest{
		Printer:    req.Printer,
		Dimensions: req.Dimensions,
		Quantity:   orDefault(req.Quantity, 1),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !q.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": q.Issue, "quote": q})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "quote": q})
}

func (s *Server) apiQuoteEngrave(c *gin.Context) {
	var req engraveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, badRequest("Невалидни данни.", err))
		return
	}

	q, err := s.quoteEngrave(quote.EngraveRequest{
		Surface:    req.Surface,
		AreaCm2:    req.AreaCm2,
		Complexity: orDefault(req.Complexity, quote.ParseComplexity("")),
		Quantity:   orDefault(req.Quantity, 1),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "quote": q})
}

func (s *Server) apiSelfTest(c *gin.Context) {
	r := quote.RunSelfTests(s.catalog)
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"passed":  r.Passed,
		"failed":  r.Failed,
		"results": r.Results,
	})
}
