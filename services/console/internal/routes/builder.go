package routes

import (
	"NexusPlatform/pkg/logger"
	"NexusPlatform/services/console/internal/domain"
)

// Table плоская таблица маршрутов в порядке обхода меню (pre-order)
type Table struct {
	Routes     []domain.RouteEntry      `json:"routes"`
	Unresolved []domain.UnresolvedRoute `json:"unresolved,omitempty"`
}

// BuildRoutes обходит меню в глубину (родитель раньше детей, соседи в порядке
// объявления) и превращает каждый узел с путем и компонентом в маршрут.
// Порядок значим: при одинаковых путях побеждает первый маршрут.
// Узел с неизвестным компонентом пропускается и попадает в Unresolved,
// его дети обходятся в любом случае.
func BuildRoutes(menu []domain.MenuNode, resolver Resolver, log logger.Logger) Table {
	if log == nil {
		log = logger.NewNop()
	}
	var table Table
	walk(menu, resolver, log, &table)
	return table
}

func walk(nodes []domain.MenuNode, resolver Resolver, log logger.Logger, table *Table) {
	for _, node := range nodes {
		if node.Path != "" && node.ComponentPath != "" {
			if loader, ok := resolver.Resolve(node.ComponentPath); ok {
				table.Routes = append(table.Routes, entryFor(node, loader))
			} else {
				log.Warn("unresolved route component",
					logger.String("path", node.Path),
					logger.String("component", node.ComponentPath),
				)
				table.Unresolved = append(table.Unresolved, domain.UnresolvedRoute{
					Path:          node.Path,
					ComponentPath: node.ComponentPath,
					Reason:        "componente no encontrado",
				})
			}
		}
		walk(node.Children, resolver, log, table)
	}
}

func entryFor(node domain.MenuNode, loader domain.Loader) domain.RouteEntry {
	return domain.RouteEntry{
		Name:          systemNames[node.Path],
		Path:          node.Path,
		ComponentPath: node.ComponentPath,
		Loader:        loader,
		Meta: domain.RouteMeta{
			Title:              node.Title,
			RequiresAuth:       !node.Public,
			Public:             node.Public,
			AllowAuthenticated: node.AllowAuthenticated,
			Roles:              domain.NewRoleSet(node.Roles...),
		},
	}
}
