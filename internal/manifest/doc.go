// Package manifest resolves service group declarations.
//
// A service group is a folder holding a service.yml that names the group's
// network, router, and member services. Each member lives in a subfolder of
// the same name with its own service.yml:
//
//	demo/
//	  service.yml        # name, network, router, services: [web]
//	  traefik.yml        # router config template
//	  web/
//	    service.yml      # name: web, image: nginx:1.25
//
// Declarations are templates. Placeholders use {{ name }} or {{ name.attr }}
// syntax and are expanded before YAML parsing:
//
//	environment:
//	  NETWORK: "{{ service.network }}"
//	  CONFIG: "{{ service.folder }}/app.conf"
//
// A placeholder may pass its value through string filters:
//
//	hostname: "{{ service.network | upper }}"
//
// Loading is all or nothing. Every member is evaluated so a failed load
// reports each broken declaration at once, but no partially resolved
// ServiceGroup is ever returned.
package manifest
