package source

// GraphQL documents sent to the OpenBeta API.
const (
	countriesQuery = `query GetCountries {
  countries {
    areaName
    uuid
  }
}`

	childrenQuery = `query GetChildAreas($uuid: ID) {
  area(uuid: $uuid) {
    children {
      uuid
      areaName
    }
  }
}`

	areasQuery = `query GetAreas($tokens: [String!]!) {
  areas(filter: {leaf_status: {isLeaf: true}, path_tokens: {tokens: $tokens, exactMatch: false}}) {
    uuid
    area_name
    pathTokens
    metadata {
      lat
      lng
    }
    climbs {
      uuid
      name
      fa
      length
      boltsCount
      grades {
        yds
        vscale
        french
      }
      type {
        sport
        trad
        bouldering
        alpine
        tr
      }
      safety
      metadata {
        lat
        lng
      }
      content {
        description
      }
      pathTokens
    }
  }
}`
)
