package state

// RegisterDefaults seeds the catalogue with the stock states and
// transitions for the five families: equipment, process, system,
// maintenance, and safety. Returns the first registration error.
func RegisterDefaults(m *Machine) error {
	states := []*State{
		// Equipment
		{ID: "equipment_off", Type: TypeEquipment, Name: "Off",
			Description: "Equipment is powered off",
			Properties:  map[string]any{"power": false, "status": "off"}},
		{ID: "equipment_on", Type: TypeEquipment, Name: "On",
			Description: "Equipment is powered on and operational",
			Properties:  map[string]any{"power": true, "status": "on"}},
		{ID: "equipment_standby", Type: TypeEquipment, Name: "Standby",
			Description: "Equipment is in standby mode",
			Properties:  map[string]any{"power": true, "status": "standby"}},
		{ID: "equipment_fault", Type: TypeEquipment, Name: "Fault",
			Description: "Equipment has a fault condition",
			Properties:  map[string]any{"power": false, "status": "fault", "error": true}},
		{ID: "equipment_maintenance", Type: TypeEquipment, Name: "Maintenance",
			Description: "Equipment is under maintenance",
			Properties:  map[string]any{"power": false, "status": "maintenance"}},

		// Process
		{ID: "process_running", Type: TypeProcess, Name: "Running",
			Description: "Process is actively running",
			Properties:  map[string]any{"active": true, "status": "running"}},
		{ID: "process_stopped", Type: TypeProcess, Name: "Stopped",
			Description: "Process is stopped",
			Properties:  map[string]any{"active": false, "status": "stopped"}},
		{ID: "process_paused", Type: TypeProcess, Name: "Paused",
			Description: "Process is paused",
			Properties:  map[string]any{"active": false, "status": "paused"}},
		{ID: "process_error", Type: TypeProcess, Name: "Error",
			Description: "Process has encountered an error",
			Properties:  map[string]any{"active": false, "status": "error", "error": true}},
		{ID: "process_recovery", Type: TypeProcess, Name: "Recovery",
			Description: "Process is in recovery mode",
			Properties:  map[string]any{"active": true, "status": "recovery"}},

		// System
		{ID: "system_normal", Type: TypeSystem, Name: "Normal",
			Description: "System is operating normally",
			Properties:  map[string]any{"status": "normal", "health": "good"}},
		{ID: "system_warning", Type: TypeSystem, Name: "Warning",
			Description: "System is in warning state",
			Properties:  map[string]any{"status": "warning", "health": "degraded"}},
		{ID: "system_critical", Type: TypeSystem, Name: "Critical",
			Description: "System is in critical state",
			Properties:  map[string]any{"status": "critical", "health": "poor"}},
		{ID: "system_emergency", Type: TypeSystem, Name: "Emergency",
			Description: "System is in emergency state",
			Properties:  map[string]any{"status": "emergency", "health": "critical"}},
		{ID: "system_shutdown", Type: TypeSystem, Name: "Shutdown",
			Description: "System is shutting down",
			Properties:  map[string]any{"status": "shutdown", "health": "offline"}},

		// Maintenance
		{ID: "maintenance_operational", Type: TypeMaintenance, Name: "Operational",
			Description: "No maintenance required",
			Properties:  map[string]any{"maintenance": false, "status": "operational"}},
		{ID: "maintenance_scheduled", Type: TypeMaintenance, Name: "Scheduled",
			Description: "Maintenance is scheduled",
			Properties:  map[string]any{"maintenance": true, "status": "scheduled"}},
		{ID: "maintenance_emergency", Type: TypeMaintenance, Name: "Emergency",
			Description: "Emergency maintenance required",
			Properties:  map[string]any{"maintenance": true, "status": "emergency"}},
		{ID: "maintenance_repair", Type: TypeMaintenance, Name: "Repair",
			Description: "Repair work in progress",
			Properties:  map[string]any{"maintenance": true, "status": "repair"}},
		{ID: "maintenance_inspection", Type: TypeMaintenance, Name: "Inspection",
			Description: "Inspection in progress",
			Properties:  map[string]any{"maintenance": true, "status": "inspection"}},

		// Safety
		{ID: "safety_safe", Type: TypeSafety, Name: "Safe",
			Description: "Safety systems are in safe state",
			Properties:  map[string]any{"safety": true, "status": "safe"}},
		{ID: "safety_warning", Type: TypeSafety, Name: "Warning",
			Description: "Safety warning condition",
			Properties:  map[string]any{"safety": true, "status": "warning"}},
		{ID: "safety_danger", Type: TypeSafety, Name: "Danger",
			Description: "Danger condition detected",
			Properties:  map[string]any{"safety": false, "status": "danger"}},
		{ID: "safety_shutdown", Type: TypeSafety, Name: "Shutdown",
			Description: "Safety shutdown activated",
			Properties:  map[string]any{"safety": false, "status": "shutdown"}},
		{ID: "safety_emergency", Type: TypeSafety, Name: "Emergency",
			Description: "Emergency condition",
			Properties:  map[string]any{"safety": false, "status": "emergency"}},
	}
	for _, s := range states {
		if err := m.AddState(s); err != nil {
			return err
		}
	}

	edges := []struct {
		from, to, desc string
	}{
		{"equipment_off", "equipment_on", "Power on equipment"},
		{"equipment_on", "equipment_off", "Power off equipment"},
		{"equipment_on", "equipment_standby", "Enter standby mode"},
		{"equipment_standby", "equipment_on", "Exit standby mode"},
		{"equipment_on", "equipment_fault", "Equipment fault detected"},
		{"equipment_fault", "equipment_maintenance", "Enter maintenance mode"},
		{"equipment_maintenance", "equipment_off", "Complete maintenance"},

		{"process_stopped", "process_running", "Start process"},
		{"process_running", "process_stopped", "Stop process"},
		{"process_running", "process_paused", "Pause process"},
		{"process_paused", "process_running", "Resume process"},
		{"process_running", "process_error", "Process error detected"},
		{"process_error", "process_recovery", "Enter recovery mode"},
		{"process_recovery", "process_running", "Recovery complete"},

		{"system_normal", "system_warning", "System warning detected"},
		{"system_warning", "system_normal", "Warning cleared"},
		{"system_warning", "system_critical", "System critical condition"},
		{"system_critical", "system_emergency", "Emergency condition"},
		{"system_emergency", "system_shutdown", "System shutdown"},

		{"maintenance_operational", "maintenance_scheduled", "Schedule maintenance"},
		{"maintenance_scheduled", "maintenance_repair", "Begin repair"},
		{"maintenance_repair", "maintenance_operational", "Repair complete"},
		{"maintenance_operational", "maintenance_emergency", "Emergency maintenance"},
		{"maintenance_emergency", "maintenance_repair", "Begin emergency repair"},
		{"maintenance_operational", "maintenance_inspection", "Begin inspection"},
		{"maintenance_inspection", "maintenance_operational", "Inspection complete"},

		{"safety_safe", "safety_warning", "Safety warning"},
		{"safety_warning", "safety_safe", "Warning cleared"},
		{"safety_warning", "safety_danger", "Danger condition"},
		{"safety_danger", "safety_shutdown", "Safety shutdown"},
		{"safety_danger", "safety_emergency", "Emergency condition"},
	}
	for _, e := range edges {
		if err := m.AddTransition(e.from, e.to, WithDescription(e.desc)); err != nil {
			return err
		}
	}
	return nil
}
