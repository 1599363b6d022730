package appstate

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/widgetdeck/versioned"
)

// Schema versions of the persisted state.
//
//	1: ui.projectsOrder and ui.currentProjectId at the top of ui
//	2: both moved into ui.projectSwitcher
//	3: memsaver settings grouped under settings.memSaver (projects) and
//	   appConfig.memSaver
const (
	CurrentVersion      = 3
	MinSupportedVersion = 1
)

type document = map[string]any

var chain = mustChain()

func mustChain() *versioned.Chain[document] {
	c, err := versioned.NewChain(CurrentVersion, MinSupportedVersion,
		versioned.Step[document]{From: 1, Migrate: migrateV1ToV2},
		versioned.Step[document]{From: 2, Migrate: migrateV2ToV3},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Migrate upgrades a persisted payload written under fromVer to the
// current schema.
func Migrate(obj json.RawMessage, fromVer int) (json.RawMessage, error) {
	var doc document
	if err := json.Unmarshal(obj, &doc); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("payload is null")
	}
	migrated, err := chain.Migrate(doc, fromVer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(migrated)
}

func migrateV1ToV2(doc document) (document, error) {
	ui, err := object(doc, "ui")
	if err != nil {
		return nil, err
	}

	switcher := document{}
	if order, ok := ui["projectsOrder"]; ok {
		switcher["projectIds"] = order
		delete(ui, "projectsOrder")
	}
	if current, ok := ui["currentProjectId"]; ok {
		switcher["currentProjectId"] = current
		delete(ui, "currentProjectId")
	}
	ui["projectSwitcher"] = switcher
	return doc, nil
}

// memSaverKeys moved under a memSaver object in version 3.
var memSaverKeys = []string{"activateWorkflowsOnProjectSwitch", "workflowInactiveAfter"}

func migrateV2ToV3(doc document) (document, error) {
	entities, err := object(doc, "entities")
	if err != nil {
		return nil, err
	}
	projects, err := object(entities, "projects")
	if err != nil {
		return nil, err
	}
	for id, raw := range projects {
		prj, ok := raw.(document)
		if !ok {
			return nil, fmt.Errorf("project %q is not an object", id)
		}
		settings, err := object(prj, "settings")
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", id, err)
		}
		groupMemSaver(settings)
	}

	ui, err := object(doc, "ui")
	if err != nil {
		return nil, err
	}
	appConfig, err := object(ui, "appConfig")
	if err != nil {
		return nil, err
	}
	groupMemSaver(appConfig)
	return doc, nil
}

func groupMemSaver(settings document) {
	ms, _ := settings["memSaver"].(document)
	if ms == nil {
		ms = document{}
	}
	for _, key := range memSaverKeys {
		if v, ok := settings[key]; ok {
			ms[key] = v
			delete(settings, key)
		}
	}
	settings["memSaver"] = ms
}

// object returns doc[key] as an object, creating it when absent.
func object(doc document, key string) (document, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		obj := document{}
		doc[key] = obj
		return obj, nil
	}
	obj, ok := raw.(document)
	if !ok {
		return nil, fmt.Errorf("%q is not an object", key)
	}
	return obj, nil
}
