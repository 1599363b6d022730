package config

// mergeConfigs merges override configuration into base. Zero values in
// override leave the base value in place.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	result.Storage = mergeStorage(result.Storage, override.Storage)
	result.MemSaver = mergeMemSaver(result.MemSaver, override.MemSaver)

	if override.Extensions != nil {
		merged := make(map[string]interface{}, len(result.Extensions)+len(override.Extensions))
		for key, value := range result.Extensions {
			merged[key] = value
		}
		for key, value := range override.Extensions {
			// Extension tables present on both sides are merged one level deep.
			if baseMap, ok := merged[key].(map[string]interface{}); ok {
				if overrideMap, ok := value.(map[string]interface{}); ok {
					mergedMap := make(map[string]interface{}, len(baseMap)+len(overrideMap))
					for k, v := range baseMap {
						mergedMap[k] = v
					}
					for k, v := range overrideMap {
						mergedMap[k] = v
					}
					merged[key] = mergedMap
					continue
				}
			}
			merged[key] = value
		}
		result.Extensions = merged
	}

	return &result
}

func mergeStorage(base, override StorageConfig) StorageConfig {
	result := base

	if override.Backend != "" {
		result.Backend = override.Backend
	}
	if override.Path != "" {
		result.Path = override.Path
	}
	if override.Key != "" {
		result.Key = override.Key
	}
	if override.SaveTimeout != "" {
		result.SaveTimeout = override.SaveTimeout
	}
	if override.Redis.Addr != "" {
		result.Redis.Addr = override.Redis.Addr
	}
	if override.Redis.Password != "" {
		result.Redis.Password = override.Redis.Password
	}
	if override.Redis.DB != 0 {
		result.Redis.DB = override.Redis.DB
	}
	if override.Redis.Prefix != "" {
		result.Redis.Prefix = override.Redis.Prefix
	}

	return result
}

func mergeMemSaver(base, override MemSaverConfig) MemSaverConfig {
	result := base

	if override.ActivateWorkflowsOnProjectSwitch != nil {
		result.ActivateWorkflowsOnProjectSwitch = override.ActivateWorkflowsOnProjectSwitch
	}
	if override.WorkflowInactiveAfter != nil {
		result.WorkflowInactiveAfter = override.WorkflowInactiveAfter
	}

	return result
}
