package memory

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

// Seed is the fixture format loaded by the memory driver.
type Seed struct {
	Hospitals []SeedHospital `yaml:"hospitals"`
}

type SeedHospital struct {
	ID                  string        `yaml:"id"`
	Subdomain           string        `yaml:"subdomain"`
	Name                string        `yaml:"name"`
	Status              string        `yaml:"status"`
	MaxAIChecksPerMonth int           `yaml:"maxAiChecksPerMonth"`
	Assistant           SeedAssistant `yaml:"assistant"`
	Doctors             []SeedDoctor  `yaml:"doctors"`
}

type SeedAssistant struct {
	Name          string        `yaml:"name"`
	Tone          string        `yaml:"tone"`
	Language      string        `yaml:"language"`
	Instructions  string        `yaml:"instructions"`
	StyleNotes    string        `yaml:"styleNotes"`
	IntroTemplate string        `yaml:"introTemplate"`
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	Features      *SeedFeatures `yaml:"features"`
}

type SeedFeatures struct {
	DietPlan             bool `yaml:"dietPlan"`
	TestSuggestions      bool `yaml:"testSuggestions"`
	DoctorRecommendation bool `yaml:"doctorRecommendation"`
}

type SeedDoctor struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Specialization string   `yaml:"specialization"`
	Qualification  string   `yaml:"qualification"`
	Expertise      []string `yaml:"expertise"`
	Status         string   `yaml:"status"`
}

func LoadSeed(path string) (*Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return &s, nil
}

// Apply loads the seed into the repositories.
func (s *Seed) Apply(hospitals *HospitalRepository, doctors *DoctorRepository, now time.Time) {
	for _, sh := range s.Hospitals {
		features := hospital.DefaultFeatures()
		if sh.Assistant.Features != nil {
			f := sh.Assistant.Features
			features = hospital.Features{
				DietPlan:             f.DietPlan,
				TestSuggestions:      f.TestSuggestions,
				DoctorRecommendation: f.DoctorRecommendation,
			}
		}
		status := hospital.Status(sh.Status)
		if status == "" {
			status = hospital.StatusActive
		}
		hospitals.Put(&hospital.Hospital{
			ID:                  sh.ID,
			Subdomain:           sh.Subdomain,
			Name:                sh.Name,
			Status:              status,
			MaxAIChecksPerMonth: sh.MaxAIChecksPerMonth,
			Assistant: hospital.Assistant{
				Name:          sh.Assistant.Name,
				Tone:          sh.Assistant.Tone,
				Language:      sh.Assistant.Language,
				Instructions:  sh.Assistant.Instructions,
				StyleNotes:    sh.Assistant.StyleNotes,
				IntroTemplate: sh.Assistant.IntroTemplate,
				Provider:      sh.Assistant.Provider,
				Model:         sh.Assistant.Model,
				Features:      features,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
		for _, sd := range sh.Doctors {
			st := doctor.Status(sd.Status)
			if st == "" {
				st = doctor.StatusActive
			}
			doctors.Put(&doctor.Doctor{
				ID:             sd.ID,
				HospitalID:     sh.ID,
				Name:           sd.Name,
				Specialization: sd.Specialization,
				Qualification:  sd.Qualification,
				Expertise:      sd.Expertise,
				Status:         st,
				CreatedAt:      now,
			})
		}
	}
}
