package routes

import (
	"fmt"
	"strings"

	"NexusPlatform/pkg/validation"
	"NexusPlatform/services/console/internal/domain"
)

// Diagnostic замечание к конфигурации меню, не прерывающее загрузку
type Diagnostic struct {
	Location string `json:"location"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s (%s): %s", d.Location, d.Path, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Location, d.Message)
}

// ValidateMenu проверяет дерево меню и возвращает его очищенную копию.
// Некорректная страница превращается в группу, чтобы ее дочерние узлы
// все равно попали в таблицу маршрутов.
func ValidateMenu(menu []domain.MenuNode) ([]domain.MenuNode, []Diagnostic) {
	v := validation.NewValidator()
	var diags []Diagnostic
	out := validateNodes(v, menu, "menu", &diags)
	return out, diags
}

func validateNodes(v *validation.Validator, nodes []domain.MenuNode, location string, diags *[]Diagnostic) []domain.MenuNode {
	out := make([]domain.MenuNode, 0, len(nodes))
	for i, node := range nodes {
		loc := fmt.Sprintf("%s[%d]", location, i)
		report := func(msg string) {
			*diags = append(*diags, Diagnostic{Location: loc, Path: node.Path, Message: msg})
		}

		if node.Kind == "" {
			if node.ComponentPath != "" {
				node.Kind = domain.MenuPage
			} else {
				node.Kind = domain.MenuGroup
			}
		}

		node.Roles = cleanRoles(node.Roles)
		children := validateNodes(v, node.Children, loc+".children", diags)
		reported := false

		switch node.Kind {
		case domain.MenuPage:
			if node.ComponentPath == "" {
				report("página sin componente")
				node, reported = asGroup(node), true
			} else if err := v.ValidateRoutePath(node.Path); err != nil {
				report(err.Error())
				node, reported = asGroup(node), true
			}
		case domain.MenuGroup:
			if node.ComponentPath != "" {
				report("un grupo no puede declarar componente; se ignora")
				node.ComponentPath = ""
			}
		default:
			report(fmt.Sprintf("tipo de nodo desconocido %q", node.Kind))
			node, reported = asGroup(node), true
		}

		if node.Kind == domain.MenuGroup && len(children) == 0 {
			if !reported && len(node.Children) == 0 {
				report("grupo vacío descartado")
			}
			continue
		}

		node.Children = children
		out = append(out, node)
	}
	return out
}

func asGroup(node domain.MenuNode) domain.MenuNode {
	return domain.MenuNode{
		Kind:     domain.MenuGroup,
		Title:    node.Title,
		Children: node.Children,
	}
}

func cleanRoles(roles []string) []string {
	if roles == nil {
		return nil
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return domain.NewRoleSet(out...)
}
