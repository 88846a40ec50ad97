package controller

import (
	"time"

	"precisionpulse/policy"
	"precisionpulse/store"

	"go.uber.org/zap"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	Store     *store.Store
	Policy    *policy.Policy
	Mirror    Mirror
	Snapshots Snapshotter
	Files     FileStore
	Notifier  Notifier
	URLTTL    time.Duration
	Logger    *zap.Logger
}

// Services is one instance of every page controller.
type Services struct {
	Policy        *policy.Policy
	Users         *UserService
	Containers    *ContainerService
	Workforce     *WorkforceService
	Candidates    *CandidateService
	InjuryReports *InjuryReportService
	Checklists    *ChecklistService
	Terminations  *TerminationService
	DamageReports *DamageReportService
	Chat          *ChatService
	Backup        *BackupService
	Export        *ExportService
}

func NewServices(d Deps) *Services {
	containers := NewContainerService(d.Store, d.Policy, d.Mirror, d.Logger)
	return &Services{
		Policy:        d.Policy,
		Users:         NewUserService(d.Store, d.Policy, d.Logger),
		Containers:    containers,
		Workforce:     NewWorkforceService(d.Store, d.Policy, d.Mirror, d.Logger),
		Candidates:    NewCandidateService(d.Store, d.Policy, d.Mirror, d.Logger),
		InjuryReports: NewInjuryReportService(d.Store, d.Policy, d.Mirror, d.Files, d.Notifier, d.URLTTL, d.Logger),
		Checklists:    NewChecklistService(d.Store, d.Policy, d.Mirror, d.Logger),
		Terminations:  NewTerminationService(d.Store, d.Policy, d.Mirror, d.Logger),
		DamageReports: NewDamageReportService(d.Store, d.Policy, d.Mirror, d.Logger),
		Chat:          NewChatService(d.Store, d.Policy, d.Mirror, d.Logger),
		Backup:        NewBackupService(d.Snapshots, d.Policy, d.Logger),
		Export:        NewExportService(containers),
	}
}
