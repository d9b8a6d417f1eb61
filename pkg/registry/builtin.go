package registry

import "github.com/matzehuels/pagecraft/pkg/value"

// Categories used by the builtin catalog.
const (
	CategoryNavigation = "navigation"
	CategoryContent    = "content"
	CategoryCommerce   = "commerce"
	CategorySocial     = "social"
	CategoryForms      = "forms"
)

// IntegrationPayment is the integration name carried by commerce components.
const IntegrationPayment = "payment"

// Builtin returns a registry preloaded with the default catalog.
func Builtin() *Registry {
	r := New()
	r.MustRegister(BuiltinSchemas()...)
	return r
}

// BuiltinSchemas returns fresh copies of the default catalog.
func BuiltinSchemas() []Schema {
	return []Schema{
		{
			Type:        "announcement",
			Name:        "Announcement Bar",
			Description: "Thin banner above the header for launches and notices",
			Category:    CategoryNavigation,
			Tags:        []string{"banner", "notice"},
			Position:    PositionTop,
			Defaults: value.Map{
				"message": value.String("We just shipped version 2.0"),
				"href":    value.String("/changelog"),
				"tone":    value.String("info"),
			},
			Properties: map[string]Property{
				"message": {Kind: KindText},
				"href":    {Kind: KindURL},
				"tone":    {Kind: KindEnum, Options: []string{"info", "warning", "success"}},
			},
		},
		{
			Type:        "header",
			Name:        "Header",
			Description: "Site header with logo and navigation links",
			Category:    CategoryNavigation,
			Tags:        []string{"navbar", "menu", "logo"},
			Position:    PositionTop,
			Defaults: value.Map{
				"brand": value.String("Acme"),
				"logo":  value.String("/logo.svg"),
				"links": value.List(
					value.Object(value.Map{"label": value.String("Features"), "href": value.String("#features")}),
					value.Object(value.Map{"label": value.String("Pricing"), "href": value.String("#pricing")}),
				),
				"sticky": value.Bool(true),
			},
			Properties: map[string]Property{
				"brand":  {Kind: KindText},
				"logo":   {Kind: KindImage},
				"links":  {Kind: KindList},
				"sticky": {Kind: KindBool},
			},
		},
		{
			Type:        "hero",
			Name:        "Hero",
			Description: "Large headline section with call to action",
			Category:    CategoryContent,
			Tags:        []string{"headline", "banner", "landing"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"title":    value.String("Build pages in minutes"),
				"subtitle": value.String("Compose, translate and ship without writing code"),
				"cta": value.Object(value.Map{
					"label": value.String("Get started"),
					"href":  value.String("/signup"),
				}),
				"image": value.String("/images/hero.png"),
				"align": value.String("center"),
			},
			Properties: map[string]Property{
				"title":    {Kind: KindText},
				"subtitle": {Kind: KindText},
				"cta":      {Kind: KindObject},
				"image":    {Kind: KindImage},
				"align":    {Kind: KindEnum, Options: []string{"left", "center", "right"}},
			},
		},
		{
			Type:        "features",
			Name:        "Feature Grid",
			Description: "Grid of product features with icons",
			Category:    CategoryContent,
			Tags:        []string{"grid", "benefits"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"heading": value.String("Everything you need"),
				"columns": value.Int(3),
				"items": value.List(
					value.Object(value.Map{"icon": value.String("bolt"), "title": value.String("Fast"), "body": value.String("Pages load instantly")}),
					value.Object(value.Map{"icon": value.String("globe"), "title": value.String("Global"), "body": value.String("Every page ships in every language")}),
					value.Object(value.Map{"icon": value.String("lock"), "title": value.String("Secure"), "body": value.String("Static output with no servers to patch")}),
				),
			},
			Properties: map[string]Property{
				"heading": {Kind: KindText},
				"columns": {Kind: KindNumber},
				"items":   {Kind: KindList},
			},
		},
		{
			Type:        "pricing",
			Name:        "Pricing Table",
			Description: "Plans with prices and checkout buttons",
			Category:    CategoryCommerce,
			Tags:        []string{"plans", "checkout", "subscription"},
			Position:    PositionFlexible,
			Integration: IntegrationPayment,
			Defaults: value.Map{
				"heading":  value.String("Simple pricing"),
				"currency": value.String("USD"),
				"plans": value.List(
					value.Object(value.Map{"name": value.String("Starter"), "price": value.Int(0), "cta": value.String("Start free")}),
					value.Object(value.Map{"name": value.String("Pro"), "price": value.Int(29), "cta": value.String("Upgrade"), "highlight": value.Bool(true)}),
				),
			},
			Properties: map[string]Property{
				"heading":  {Kind: KindText},
				"currency": {Kind: KindEnum, Options: []string{"USD", "EUR", "GBP"}},
				"plans":    {Kind: KindList},
			},
		},
		{
			Type:        "testimonials",
			Name:        "Testimonials",
			Description: "Customer quotes with names and avatars",
			Category:    CategorySocial,
			Tags:        []string{"quotes", "reviews", "social proof"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"heading": value.String("Loved by teams"),
				"quotes": value.List(
					value.Object(value.Map{"quote": value.String("We launched in a day."), "author": value.String("Dana K."), "avatar": value.String("/avatars/dana.png")}),
				),
			},
			Properties: map[string]Property{
				"heading": {Kind: KindText},
				"quotes":  {Kind: KindList},
			},
		},
		{
			Type:        "faq",
			Name:        "FAQ",
			Description: "Frequently asked questions accordion",
			Category:    CategoryContent,
			Tags:        []string{"questions", "accordion", "help"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"heading": value.String("Questions"),
				"items": value.List(
					value.Object(value.Map{"q": value.String("Can I cancel anytime?"), "a": value.String("Yes, plans are month to month.")}),
				),
			},
			Properties: map[string]Property{
				"heading": {Kind: KindText},
				"items":   {Kind: KindList},
			},
		},
		{
			Type:        "cta",
			Name:        "Call to Action",
			Description: "Closing section prompting a signup",
			Category:    CategoryContent,
			Tags:        []string{"signup", "button", "conversion"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"title":  value.String("Ready to launch?"),
				"button": value.String("Create your page"),
				"href":   value.String("/signup"),
				"color":  value.String("#4f46e5"),
			},
			Properties: map[string]Property{
				"title":  {Kind: KindText},
				"button": {Kind: KindText},
				"href":   {Kind: KindURL},
				"color":  {Kind: KindColor},
			},
		},
		{
			Type:        "gallery",
			Name:        "Image Gallery",
			Description: "Grid of images with captions",
			Category:    CategoryContent,
			Tags:        []string{"images", "photos", "media"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"images": value.List(
					value.Object(value.Map{"src": value.String("/images/shot-1.png"), "caption": value.String("Dashboard")}),
				),
				"columns": value.Int(2),
			},
			Properties: map[string]Property{
				"images":  {Kind: KindList},
				"columns": {Kind: KindNumber},
			},
		},
		{
			Type:        "contact",
			Name:        "Contact Form",
			Description: "Email capture form",
			Category:    CategoryForms,
			Tags:        []string{"form", "email", "newsletter"},
			Position:    PositionFlexible,
			Defaults: value.Map{
				"heading":     value.String("Talk to us"),
				"placeholder": value.String("you@company.com"),
				"submit":      value.String("Send"),
				"endpoint":    value.String("https://api.example.com/contact"),
			},
			Properties: map[string]Property{
				"heading":     {Kind: KindText},
				"placeholder": {Kind: KindText},
				"submit":      {Kind: KindText},
				"endpoint":    {Kind: KindURL},
			},
		},
		{
			Type:        "footer",
			Name:        "Footer",
			Description: "Site footer with links and copyright",
			Category:    CategoryNavigation,
			Tags:        []string{"links", "copyright", "legal"},
			Position:    PositionBottom,
			Defaults: value.Map{
				"copyright": value.String("Acme Inc. All rights reserved."),
				"links": value.List(
					value.Object(value.Map{"label": value.String("Privacy"), "href": value.String("/privacy")}),
					value.Object(value.Map{"label": value.String("Terms"), "href": value.String("/terms")}),
				),
				"email": value.String("hello@acme.dev"),
			},
			Properties: map[string]Property{
				"copyright": {Kind: KindText},
				"links":     {Kind: KindList},
				"email":     {Kind: KindText},
			},
		},
	}
}
