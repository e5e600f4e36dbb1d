package domain

import (
	"encoding/json"
	"fmt"
)

// MenuKind тег варианта узла меню
type MenuKind string

const (
	// MenuGroup узел-группа: только заголовок и дочерние узлы
	MenuGroup MenuKind = "group"
	// MenuPage узел-страница: путь и компонент обязательны
	MenuPage MenuKind = "page"
)

// MenuNode узел дерева меню. Из узлов-страниц строятся маршруты.
type MenuNode struct {
	Kind               MenuKind   `json:"kind" yaml:"kind"`
	Path               string     `json:"path,omitempty" yaml:"path,omitempty"`
	ComponentPath      string     `json:"component,omitempty" yaml:"component,omitempty"`
	Title              string     `json:"title,omitempty" yaml:"title,omitempty"`
	Roles              []string   `json:"roles,omitempty" yaml:"roles,omitempty"`
	Public             bool       `json:"public,omitempty" yaml:"public,omitempty"`
	AllowAuthenticated bool       `json:"allow_authenticated,omitempty" yaml:"allow_authenticated,omitempty"`
	Children           []MenuNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// menuNodeWire принимает альтернативные имена полей, которые встречаются
// в сохраненных конфигурациях меню (to/label/items/componentPath/componentRef).
type menuNodeWire struct {
	Kind               MenuKind   `json:"kind" yaml:"kind"`
	Path               string     `json:"path" yaml:"path"`
	To                 string     `json:"to" yaml:"to"`
	Component          string     `json:"component" yaml:"component"`
	ComponentPathAlias string     `json:"componentPath" yaml:"componentPath"`
	ComponentRef       string     `json:"componentRef" yaml:"componentRef"`
	Title              string     `json:"title" yaml:"title"`
	Label              string     `json:"label" yaml:"label"`
	Roles              []string   `json:"roles" yaml:"roles"`
	Public             bool       `json:"public" yaml:"public"`
	AllowAuthenticated bool       `json:"allow_authenticated" yaml:"allow_authenticated"`
	Children           []MenuNode `json:"children" yaml:"children"`
	Items              []MenuNode `json:"items" yaml:"items"`
}

// node приводит алиасы к каноническим полям.
// Если kind не задан, он выводится: узел с компонентом считается страницей.
func (w menuNodeWire) node() MenuNode {
	n := MenuNode{
		Kind:               w.Kind,
		Path:               firstNonEmpty(w.Path, w.To),
		ComponentPath:      firstNonEmpty(w.Component, w.ComponentPathAlias, w.ComponentRef),
		Title:              firstNonEmpty(w.Title, w.Label),
		Roles:              w.Roles,
		Public:             w.Public,
		AllowAuthenticated: w.AllowAuthenticated,
		Children:           w.Children,
	}
	if len(n.Children) == 0 {
		n.Children = w.Items
	}
	if n.Kind == "" {
		if n.ComponentPath != "" {
			n.Kind = MenuPage
		} else {
			n.Kind = MenuGroup
		}
	}
	return n
}

// UnmarshalJSON разбирает узел, принимая алиасы полей
func (n *MenuNode) UnmarshalJSON(data []byte) error {
	var w menuNodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("nodo de menú inválido: %w", err)
	}
	*n = w.node()
	return nil
}

// UnmarshalYAML то же для YAML (gopkg.in/yaml.v2)
func (n *MenuNode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var w menuNodeWire
	if err := unmarshal(&w); err != nil {
		return fmt.Errorf("nodo de menú inválido: %w", err)
	}
	*n = w.node()
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Component разрешенное представление маршрута
type Component interface {
	Name() string
}

// Loader лениво загружает компонент маршрута
type Loader func() (Component, error)

// RouteMeta метаданные маршрута для охранника навигации
type RouteMeta struct {
	Title              string  `json:"title"`
	RequiresAuth       bool    `json:"requires_auth"`
	Public             bool    `json:"public"`
	AllowAuthenticated bool    `json:"allow_authenticated,omitempty"`
	Roles              RoleSet `json:"roles,omitempty"`
}

// RouteEntry маршрут, полученный из меню. Неизменяем после построения.
type RouteEntry struct {
	Name          string    `json:"name,omitempty"`
	Path          string    `json:"path"`
	ComponentPath string    `json:"component"`
	Loader        Loader    `json:"-"`
	Meta          RouteMeta `json:"meta"`
}

// UnresolvedRoute узел меню, для которого не найден компонент
type UnresolvedRoute struct {
	Path          string `json:"path"`
	ComponentPath string `json:"component"`
	Reason        string `json:"reason"`
}
