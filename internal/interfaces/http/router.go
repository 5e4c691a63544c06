package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/planta-ops/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orchestrator *inventory.Orchestrator
	Query        *inventory.QueryService
	JWTSecret    string
}

// Router registra las rutas de la API. Todo el motor de inventario va detrás
// del Bearer Token; el chequeo de permisos fino lo hace el orquestador contra
// el colaborador de autorización.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	inventoryHandler := NewInventoryHandler(deps.Orchestrator, deps.Query)
	guideHandler := NewGuideHandler(deps.Orchestrator, deps.Query)
	stepHandler := NewStepHandler(deps.Orchestrator)

	// Items
	items := api.Group("/items")
	items.Post("/", inventoryHandler.CreateItem)
	items.Get("/", inventoryHandler.ListItems)
	items.Get("/:id", inventoryHandler.GetItem)
	items.Get("/:id/availability", inventoryHandler.GetAvailability)
	items.Get("/:id/ledger", inventoryHandler.ListItemLedger)
	items.Delete("/:id", inventoryHandler.DeleteItem)

	// Escáner: resuelve un código contra items y guías
	api.Get("/barcode/:code", inventoryHandler.LookupBarcode)

	// Libro de movimientos, asiento puntual
	api.Get("/ledger/:id", inventoryHandler.GetLedgerEntry)

	// Stock directo (sin guía)
	inv := api.Group("/inventory")
	inv.Post("/add", inventoryHandler.AddQuantity)
	inv.Post("/remove", inventoryHandler.RemoveQuantity)

	// Guías de producción y su material
	guides := api.Group("/guides")
	guides.Post("/", guideHandler.CreateGuide)
	guides.Delete("/:id", guideHandler.DeleteGuide)
	guides.Get("/:id/ledger", guideHandler.ListGuideLedger)
	guides.Put("/:id/items/:itemId", guideHandler.UpsertGuideItem)
	guides.Delete("/:id/items/:itemId", guideHandler.RemoveGuideItem)
	guides.Post("/:id/withdraw", guideHandler.Withdraw)

	// Material a nivel de paso
	steps := api.Group("/steps")
	steps.Post("/:id/items/:itemId", stepHandler.AddItem)
	steps.Post("/:id/items/:itemId/reserve", stepHandler.Reserve)
	steps.Post("/:id/items/:itemId/issue", stepHandler.Issue)
	steps.Post("/:id/items/:itemId/release", stepHandler.Release)
}
